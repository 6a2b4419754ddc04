package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/covlet/covlet/pkg/jacoco"
	"github.com/covlet/covlet/pkg/logger"
	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Threshold    float64
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Threshold:    tools.DefaultCoverageThreshold,
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return errors.Errorf("threshold must be between 0 and 100, got %.2f", c.Threshold)
	}
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the JaCoCo report and print coverage on change",
	Long: `Watches the JaCoCo XML report and re-prints the coverage summary every
time the report is regenerated, e.g. by "mvn clean test jacoco:report"
running in another terminal. Classes below the line coverage threshold
are listed after each summary.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		state := tools.NewBasicState(stateOptionsFromFlags(cmd)...)
		if err := runWatchMode(ctx, state.ReportPath(), config); err != nil {
			presenter.Error(err, "Failed to watch coverage report")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().Float64("threshold", defaults.Threshold, "Line coverage threshold for listing uncovered classes")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for report change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if threshold, err := cmd.Flags().GetFloat64("threshold"); err == nil {
		config.Threshold = threshold
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

func runWatchMode(ctx context.Context, reportPath string, config *WatchConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	// The report is replaced wholesale on each build, so watch its
	// directory rather than the file itself.
	reportDir := filepath.Dir(reportPath)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create report directory %s", reportDir)
	}
	if err := watcher.Add(reportDir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", reportDir)
	}

	changes := make(chan struct{}, 1)
	go debounceReportEvents(ctx, changes, time.Duration(config.DebounceTime)*time.Millisecond, func() {
		printCoverage(ctx, reportPath, config.Threshold)
	})

	if jacoco.Exists(reportPath) {
		printCoverage(ctx, reportPath, config.Threshold)
	}

	presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", reportPath))
	logger.G(ctx).WithField("report", reportPath).Info("Coverage watcher initialized")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != reportPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.G(ctx).WithFields(map[string]interface{}{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("Report change detected")
			select {
			case changes <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			presenter.Error(err, "File watcher error")
			logger.G(ctx).WithError(err).Error("Error watching report")
		case <-ctx.Done():
			return nil
		}
	}
}

// debounceReportEvents coalesces rapid change notifications so a build that
// rewrites the report in several chunks triggers a single re-parse.
func debounceReportEvents(ctx context.Context, input <-chan struct{}, delay time.Duration, fn func()) {
	var timer *time.Timer

	for {
		select {
		case _, ok := <-input:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, fn)
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func printCoverage(ctx context.Context, reportPath string, threshold float64) {
	report, err := jacoco.ParseFile(reportPath)
	if err != nil {
		presenter.Error(err, "Failed to parse coverage report")
		logger.G(ctx).WithError(err).WithField("report", reportPath).Error("Failed to parse coverage report")
		return
	}

	summary := report.Summary()
	presenter.Separator()
	presenter.Section(fmt.Sprintf("Coverage at %s", time.Now().Format("15:04:05")))
	presenter.Coverage(&presenter.CoverageStats{
		LinePct:   summary.LinePct,
		BranchPct: summary.BranchPct,
	})

	uncovered := report.UncoveredClasses(threshold)
	if len(uncovered) == 0 {
		presenter.Success(fmt.Sprintf("All classes meet the %.1f%% line coverage threshold", threshold))
		return
	}
	presenter.Warning(fmt.Sprintf("%d classes below %.1f%% line coverage:", len(uncovered), threshold))
	for _, class := range uncovered {
		fmt.Printf("  %-60s %6.2f%%\n", class.Name, class.LinePct)
	}
}
