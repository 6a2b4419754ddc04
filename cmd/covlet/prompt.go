package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/prompts"
	"github.com/covlet/covlet/pkg/tools"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Inspect and validate agent prompt files",
	Long: `Work with agent prompt files: Markdown documents with YAML frontmatter
(mode, tools, description, model) and natural language instructions. Prompts
are loaded from ./prompts, then ~/.covlet/prompts, then the builtins.`,
}

var promptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available prompts",
	Run: func(cmd *cobra.Command, _ []string) {
		processor, err := newPromptProcessor(cmd)
		if err != nil {
			presenter.Error(err, "failed to create prompt processor")
			os.Exit(1)
		}

		for _, name := range processor.List(cmd.Context()) {
			fmt.Println(name)
		}
	},
}

var promptShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a prompt's metadata and instructions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		processor, err := newPromptProcessor(cmd)
		if err != nil {
			presenter.Error(err, "failed to create prompt processor")
			os.Exit(1)
		}

		prompt, err := processor.Load(cmd.Context(), args[0])
		if err != nil {
			presenter.Error(err, "failed to load prompt")
			os.Exit(1)
		}

		metadata, err := yaml.Marshal(prompt.Metadata)
		if err != nil {
			presenter.Error(err, "failed to render metadata")
			os.Exit(1)
		}

		if prompt.Path != "" {
			presenter.Info("path: " + prompt.Path)
		} else {
			presenter.Info("builtin prompt")
		}
		presenter.Separator()
		fmt.Print(string(metadata))
		presenter.Separator()
		fmt.Println(prompt.Instructions)
	},
}

var promptValidateCmd = &cobra.Command{
	Use:   "validate <name>",
	Short: "Validate a prompt against the registered tools",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		processor, err := newPromptProcessor(cmd)
		if err != nil {
			presenter.Error(err, "failed to create prompt processor")
			os.Exit(1)
		}

		prompt, err := processor.Load(cmd.Context(), args[0])
		if err != nil {
			presenter.Error(err, "failed to load prompt")
			os.Exit(1)
		}

		if err := prompts.Validate(prompt, tools.RegisteredToolNames()); err != nil {
			presenter.Error(err, "prompt is invalid")
			os.Exit(1)
		}

		resolved := prompts.ResolveTools(prompt, tools.RegisteredToolNames())
		presenter.Success(fmt.Sprintf("prompt %q is valid (%d tools resolved)", args[0], len(resolved)))
	},
}

func init() {
	promptCmd.PersistentFlags().StringSlice("prompt-dirs", nil, "Prompt directories (default: ./prompts, ~/.covlet/prompts)")
	promptCmd.AddCommand(promptListCmd)
	promptCmd.AddCommand(promptShowCmd)
	promptCmd.AddCommand(promptValidateCmd)
}

func newPromptProcessor(cmd *cobra.Command) (*prompts.Processor, error) {
	if dirs, err := cmd.Flags().GetStringSlice("prompt-dirs"); err == nil && len(dirs) > 0 {
		return prompts.NewProcessor(prompts.WithPromptDirs(dirs...))
	}
	return prompts.NewProcessor()
}
