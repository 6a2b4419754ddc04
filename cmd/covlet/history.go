package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/presenter"
)

type HistoryConfig struct {
	Limit int
}

func NewHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Limit: 20,
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent recorded tool runs",
	Long: `List tool runs recorded in the local database, most recent first.
Runs of maven_test, maven_report, parse_jacoco and the git tools are
recorded automatically when the history store is available.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getHistoryConfigFromFlags(cmd)
		if err := runHistoryCommand(cmd, config); err != nil {
			presenter.Error(err, "failed to read run history")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewHistoryConfig()
	historyCmd.Flags().Int("limit", defaults.Limit, "Maximum number of runs to show")
}

func getHistoryConfigFromFlags(cmd *cobra.Command) *HistoryConfig {
	config := NewHistoryConfig()

	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}

	return config
}

func runHistoryCommand(cmd *cobra.Command, config *HistoryConfig) error {
	ctx := cmd.Context()

	store, database, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := store.ListRuns(ctx, config.Limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		presenter.Info("No recorded runs")
		return nil
	}

	for _, rec := range records {
		line := fmt.Sprintf("%s  %-18s exit=%d", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Tool, rec.ExitCode)
		if rec.LinePct != nil {
			line += fmt.Sprintf("  line=%.2f%%", *rec.LinePct)
		}
		if rec.BranchPct != nil {
			line += fmt.Sprintf("  branch=%.2f%%", *rec.BranchPct)
		}
		if rec.Command != "" {
			line += "  " + rec.Command
		}
		fmt.Println(line)
	}

	return nil
}
