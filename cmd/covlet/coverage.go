package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/jacoco"
	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
)

type CoverageConfig struct {
	Threshold float64
	Uncovered bool
}

func NewCoverageConfig() *CoverageConfig {
	return &CoverageConfig{
		Threshold: tools.DefaultCoverageThreshold,
	}
}

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Summarize the JaCoCo coverage report",
	Long: `Parse the project's JaCoCo XML report and print line and branch coverage.
With --uncovered, list the classes whose line coverage falls below the
threshold instead.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getCoverageConfigFromFlags(cmd)
		if err := runCoverageCommand(cmd, config); err != nil {
			presenter.Error(err, "coverage analysis failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewCoverageConfig()
	coverageCmd.Flags().Float64("threshold", defaults.Threshold, "Line coverage threshold for --uncovered")
	coverageCmd.Flags().Bool("uncovered", false, "List classes below the threshold")
}

func getCoverageConfigFromFlags(cmd *cobra.Command) *CoverageConfig {
	config := NewCoverageConfig()

	if threshold, err := cmd.Flags().GetFloat64("threshold"); err == nil {
		config.Threshold = threshold
	}
	if uncovered, err := cmd.Flags().GetBool("uncovered"); err == nil {
		config.Uncovered = uncovered
	}

	return config
}

func runCoverageCommand(cmd *cobra.Command, config *CoverageConfig) error {
	state := tools.NewBasicState(stateOptionsFromFlags(cmd)...)

	report, err := jacoco.ParseFile(state.ReportPath())
	if err != nil {
		return err
	}

	if config.Uncovered {
		classes := report.UncoveredClasses(config.Threshold)
		if len(classes) == 0 {
			presenter.Success(fmt.Sprintf("all classes meet the %.1f%% line coverage threshold", config.Threshold))
			return nil
		}
		presenter.Section(fmt.Sprintf("Classes below %.1f%% line coverage", config.Threshold))
		for _, cls := range classes {
			fmt.Printf("%-60s %6.2f%%\n", cls.Name, cls.LinePct)
		}
		return nil
	}

	summary := report.Summary()
	presenter.Coverage(&presenter.CoverageStats{LinePct: summary.LinePct, BranchPct: summary.BranchPct})
	return nil
}
