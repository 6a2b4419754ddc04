// Package mcpsrv exposes the covlet tool registry over the Model Context
// Protocol, via stdio or SSE transports.
package mcpsrv

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/covlet/covlet/pkg/logger"
	"github.com/covlet/covlet/pkg/tools"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
	"github.com/covlet/covlet/pkg/version"
)

const serverInstructions = `covlet provides Maven test execution, JaCoCo coverage analysis, and git
operations for a Java project. Run maven_test to execute the test suite,
maven_report to produce and summarize a coverage report, parse_jacoco and
uncovered_classes to inspect existing reports, and the git_* tools to stage,
commit, and push changes.`

// Server wraps an MCP server bound to a tool state
type Server struct {
	mcpServer *server.MCPServer
	state     tooltypes.State
}

// NewServer creates an MCP server exposing the given tools against state
func NewServer(state tooltypes.State, registryTools []tooltypes.Tool) (*Server, error) {
	s := server.NewMCPServer(
		"covlet",
		version.Get().Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	srv := &Server{mcpServer: s, state: state}

	for _, tool := range registryTools {
		schema, err := json.Marshal(tool.GenerateSchema())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal schema for tool %s", tool.Name())
		}

		def := mcp.NewToolWithRawSchema(tool.Name(), tool.Description(), schema)
		s.AddTool(def, srv.handlerFor(tool.Name()))
	}

	return srv, nil
}

// handlerFor bridges an MCP call to the registry: arguments are re-encoded to
// JSON parameters, validation and execution happen in RunTool, and the
// assistant-facing text goes back as the tool result.
func (s *Server) handlerFor(toolName string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arguments := req.Params.Arguments
		if arguments == nil {
			arguments = map[string]any{}
		}

		parameters, err := json.Marshal(arguments)
		if err != nil {
			return mcp.NewToolResultError(errors.Wrap(err, "failed to marshal arguments").Error()), nil
		}

		logger.G(ctx).WithField("tool", toolName).Debug("handling mcp tool call")

		result := tools.RunTool(ctx, s.state, toolName, string(parameters))
		if result.IsError() {
			return mcp.NewToolResultError(result.AssistantFacing()), nil
		}
		return mcp.NewToolResultText(result.AssistantFacing()), nil
	}
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects
func (s *Server) ServeStdio() error {
	return errors.Wrap(server.ServeStdio(s.mcpServer), "stdio server failed")
}

// ServeSSE serves MCP over SSE on addr until ctx is cancelled
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sseServer.Start(addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(sseServer.Shutdown(shutdownCtx), "failed to shut down sse server")
	case err := <-errCh:
		return errors.Wrap(err, "sse server failed")
	}
}
