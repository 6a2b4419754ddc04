package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	Run: func(_ *cobra.Command, _ []string) {
		presenter.Section("Registered tools")
		for _, tool := range tools.GetTools(nil) {
			fmt.Printf("%-18s %s\n", tool.Name(), tool.Description())
		}
	},
}
