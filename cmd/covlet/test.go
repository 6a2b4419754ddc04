package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
	"github.com/covlet/covlet/pkg/tools/renderers"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

type TestConfig struct {
	Filter     string
	Report     bool
	Background bool
	Timeout    int
}

func NewTestConfig() *TestConfig {
	return &TestConfig{}
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the Maven test suite",
	Long: `Run the project's Maven tests. With --report the run also produces a JaCoCo
coverage report and prints the summary. With --background the run detaches and
its output goes to a log file under the project's .covlet directory.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getTestConfigFromFlags(cmd)

		state, closeState := newState(ctx, cmd)
		defer closeState()

		toolName := "maven_test"
		params := map[string]any{}
		if config.Filter != "" {
			params["test_filter"] = config.Filter
		}
		if config.Timeout > 0 {
			params["timeout"] = config.Timeout
		}
		if config.Report {
			toolName = "maven_report"
		} else if config.Background {
			params["background"] = true
			delete(params, "timeout")
		}

		parameters, err := json.Marshal(params)
		if err != nil {
			presenter.Error(err, "failed to encode parameters")
			os.Exit(1)
		}

		result := tools.RunTool(ctx, state, toolName, string(parameters))

		registry := renderers.NewRendererRegistry()
		structured := result.StructuredData()
		fmt.Println(registry.Render(structured))

		if config.Report {
			if meta, ok := structured.Metadata.(tooltypes.CoverageMetadata); ok {
				presenter.Coverage(&presenter.CoverageStats{LinePct: meta.LinePct, BranchPct: meta.BranchPct})
			}
		}

		if result.IsError() {
			os.Exit(1)
		}
	},
}

func init() {
	testCmd.Flags().String("filter", "", "Maven -Dtest filter, e.g. 'org.example.MyTest#method'")
	testCmd.Flags().Bool("report", false, "Also produce and summarize a JaCoCo coverage report")
	testCmd.Flags().Bool("background", false, "Run in the background and return immediately")
	testCmd.Flags().Int("timeout", 0, "Timeout in seconds (default 600)")
}

func getTestConfigFromFlags(cmd *cobra.Command) *TestConfig {
	config := NewTestConfig()

	if filter, err := cmd.Flags().GetString("filter"); err == nil {
		config.Filter = filter
	}
	if report, err := cmd.Flags().GetBool("report"); err == nil {
		config.Report = report
	}
	if background, err := cmd.Flags().GetBool("background"); err == nil {
		config.Background = background
	}
	if timeout, err := cmd.Flags().GetInt("timeout"); err == nil {
		config.Timeout = timeout
	}

	return config
}
