package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/covlet/covlet/pkg/logger"
	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/telemetry"
	"github.com/covlet/covlet/pkg/version"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("COVLET")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.covlet")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var tracingShutdown func(context.Context) error

var rootCmd = &cobra.Command{
	Use:   "covlet",
	Short: "Maven test and JaCoCo coverage helper for AI coding agents",
	Long: `covlet runs Maven tests, parses JaCoCo coverage reports, and wraps git
operations behind a tool registry. The registry is served over MCP and HTTP
for consumption by agent runtimes, and is also callable directly from the CLI.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if level, err := cmd.Flags().GetString("log-level"); err == nil && level != "" {
			if err := logger.SetLogLevel(level); err != nil {
				return err
			}
		}
		if format, err := cmd.Flags().GetString("log-format"); err == nil && format != "" {
			logger.SetLogFormat(format)
		}
		if quiet, err := cmd.Flags().GetBool("quiet"); err == nil {
			presenter.SetQuiet(quiet)
		}

		if viper.GetBool("tracing.enabled") {
			shutdown, err := telemetry.InitTracer(cmd.Context(), telemetry.Config{
				Enabled:        true,
				ServiceName:    "covlet",
				ServiceVersion: version.Get().Version,
				SamplerType:    viper.GetString("tracing.sampler"),
				SamplerRatio:   viper.GetFloat64("tracing.ratio"),
			})
			if err != nil {
				logger.L.WithError(err).Warn("failed to initialize tracing")
			} else {
				tracingShutdown = shutdown
			}
		}
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json, text, fmt)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().String("project-root", "", "Java project root (defaults to the working directory)")
	rootCmd.PersistentFlags().String("pom", "", "Path to pom.xml (defaults to <project-root>/pom.xml)")
	rootCmd.PersistentFlags().String("report", "", "Path to jacoco.xml (defaults to the conventional Maven location)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("project_root", rootCmd.PersistentFlags().Lookup("project-root"))

	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(withTracing(apiCmd))
	rootCmd.AddCommand(withTracing(callCmd))
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(withTracing(testCmd))
	rootCmd.AddCommand(withTracing(coverageCmd))
	rootCmd.AddCommand(withTracing(historyCmd))
	rootCmd.AddCommand(withTracing(watchCmd))
	rootCmd.AddCommand(versionCmd)

	err := rootCmd.ExecuteContext(ctx)

	if tracingShutdown != nil {
		if shutdownErr := tracingShutdown(context.Background()); shutdownErr != nil {
			logger.L.WithError(shutdownErr).Debug("failed to shut down tracing")
		}
	}

	if err != nil {
		os.Exit(1)
	}
}
