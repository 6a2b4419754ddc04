package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/covlet/covlet/pkg/mcpsrv"
	"github.com/covlet/covlet/pkg/presenter"
	"github.com/covlet/covlet/pkg/tools"
)

type ServeConfig struct {
	Transport string
	Addr      string
	Tools     []string
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Transport: "stdio",
		Addr:      ":8972",
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start an MCP (Model Context Protocol) server exposing the covlet tool
registry. The stdio transport is the default and suits direct agent
integration; the sse transport listens on a TCP address.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		if err := runServeCommand(ctx, cmd, config); err != nil {
			presenter.Error(err, "mcp server failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("transport", defaults.Transport, "Transport to serve on (stdio or sse)")
	serveCmd.Flags().String("addr", defaults.Addr, "Listen address for the sse transport")
	serveCmd.Flags().StringSlice("tools", nil, "Tools to expose (default: all)")
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if transport, err := cmd.Flags().GetString("transport"); err == nil && transport != "" {
		config.Transport = transport
	}
	if addr, err := cmd.Flags().GetString("addr"); err == nil && addr != "" {
		config.Addr = addr
	}
	if toolNames, err := cmd.Flags().GetStringSlice("tools"); err == nil && len(toolNames) > 0 {
		config.Tools = toolNames
	}

	// Allow override from viper config
	if viper.IsSet("mcp.transport") {
		config.Transport = viper.GetString("mcp.transport")
	}
	if viper.IsSet("mcp.addr") {
		config.Addr = viper.GetString("mcp.addr")
	}

	return config
}

func validateServeConfig(config *ServeConfig) error {
	if config.Transport != "stdio" && config.Transport != "sse" {
		return errors.Errorf("unsupported transport %q (expected stdio or sse)", config.Transport)
	}
	if config.Transport == "sse" && config.Addr == "" {
		return errors.New("addr cannot be empty for the sse transport")
	}
	return errors.Wrap(tools.ValidateTools(config.Tools), "invalid tool selection")
}

func runServeCommand(ctx context.Context, cmd *cobra.Command, config *ServeConfig) error {
	if err := validateServeConfig(config); err != nil {
		return err
	}

	state, closeState := newState(ctx, cmd)
	defer closeState()

	srv, err := mcpsrv.NewServer(state, tools.GetTools(config.Tools))
	if err != nil {
		return err
	}

	if config.Transport == "sse" {
		presenter.Info("serving MCP over SSE on " + config.Addr)
		return srv.ServeSSE(ctx, config.Addr)
	}
	return srv.ServeStdio()
}
