package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
	"github.com/covlet/covlet/pkg/tools/renderers"
)

type CallConfig struct {
	Params string
	JSON   bool
}

func NewCallConfig() *CallConfig {
	return &CallConfig{
		Params: "{}",
	}
}

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Run a registry tool directly",
	Long: `Run one tool from the registry with JSON parameters and print the result.

Examples:
  covlet call echo --params '{"text": "hello"}'
  covlet call safe_calc --params '{"expression": "1 + 2 * 3"}'
  covlet call maven_test --params '{"test_filter": "org.example.CalcTest"}'
  covlet call uncovered_classes --params '{"threshold": 90}'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getCallConfigFromFlags(cmd)
		if err := runCallCommand(cmd, args[0], config); err != nil {
			presenter.Error(err, "tool call failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewCallConfig()
	callCmd.Flags().String("params", defaults.Params, "Tool parameters as a JSON object")
	callCmd.Flags().Bool("json", false, "Print the structured result as JSON")
}

func getCallConfigFromFlags(cmd *cobra.Command) *CallConfig {
	config := NewCallConfig()

	if params, err := cmd.Flags().GetString("params"); err == nil && params != "" {
		config.Params = params
	}
	if jsonOut, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = jsonOut
	}

	return config
}

func runCallCommand(cmd *cobra.Command, toolName string, config *CallConfig) error {
	ctx := cmd.Context()

	if !json.Valid([]byte(config.Params)) {
		return errors.Errorf("params must be a valid JSON object, got %q", config.Params)
	}
	if err := tools.ValidateTools([]string{toolName}); err != nil {
		return err
	}

	state, closeState := newState(ctx, cmd)
	defer closeState()

	result := tools.RunTool(ctx, state, toolName, config.Params)

	if config.JSON {
		out, err := json.MarshalIndent(result.StructuredData(), "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal result")
		}
		fmt.Println(string(out))
		if result.IsError() {
			os.Exit(1)
		}
		return nil
	}

	registry := renderers.NewRendererRegistry()
	fmt.Println(registry.Render(result.StructuredData()))
	if result.IsError() {
		os.Exit(1)
	}
	return nil
}
