package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/covlet/covlet/pkg/httpapi"
	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
)

type APIConfig struct {
	Host string
	Port int
}

func NewAPIConfig() *APIConfig {
	return &APIConfig{
		Host: "127.0.0.1",
		Port: 8971,
	}
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the covlet HTTP API: health, echo, calc, maven test, coverage, and
run history endpoints. The surface mirrors the MCP tool registry for clients
that prefer plain HTTP.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getAPIConfigFromFlags(cmd)
		if err := runAPICommand(ctx, cmd, config); err != nil {
			presenter.Error(err, "http api failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewAPIConfig()
	apiCmd.Flags().String("host", defaults.Host, "Host to listen on")
	apiCmd.Flags().Int("port", defaults.Port, "Port to listen on")
}

func getAPIConfigFromFlags(cmd *cobra.Command) *APIConfig {
	config := NewAPIConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil && host != "" {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil && port != 0 {
		config.Port = port
	}

	if viper.IsSet("api.host") {
		config.Host = viper.GetString("api.host")
	}
	if viper.IsSet("api.port") {
		config.Port = viper.GetInt("api.port")
	}

	return config
}

func runAPICommand(ctx context.Context, cmd *cobra.Command, config *APIConfig) error {
	opts := stateOptionsFromFlags(cmd)

	store, database, err := openHistory(ctx)
	if err != nil {
		presenter.Warning("history store unavailable: " + err.Error())
		store = nil
	} else {
		defer database.Close()
		opts = append(opts, tools.WithRecorder(store))
	}

	state := tools.NewBasicState(opts...)
	srv, err := httpapi.NewServer(httpapi.Config{Host: config.Host, Port: config.Port}, state, store)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
