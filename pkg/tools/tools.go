// Package tools provides the tool execution framework for covlet. It defines
// the available tools, manages registration, and handles execution with
// validation, tracing, and run recording.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"github.com/covlet/covlet/pkg/logger"
	"github.com/covlet/covlet/pkg/telemetry"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

// GenerateSchema reflects a JSON schema from an input struct type
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}

// toolRegistry holds all available tools mapped by their names
var toolRegistry = map[string]tooltypes.Tool{
	"echo":              &EchoTool{},
	"safe_calc":         &SafeCalcTool{},
	"maven_test":        &MavenTestTool{},
	"maven_report":      &MavenReportTool{},
	"parse_jacoco":      &ParseJacocoTool{},
	"uncovered_classes": &UncoveredClassesTool{},
	"git_status":        &GitStatusTool{},
	"git_add_all":       &GitAddAllTool{},
	"git_commit":        &GitCommitTool{},
	"git_push":          &GitPushTool{},
	"background_runs":   &BackgroundRunsTool{},
}

// defaultToolOrder is the presentation order for listings and the default
// tool set when no selection is configured
var defaultToolOrder = []string{
	"echo",
	"safe_calc",
	"maven_test",
	"maven_report",
	"parse_jacoco",
	"uncovered_classes",
	"git_status",
	"git_add_all",
	"git_commit",
	"git_push",
	"background_runs",
}

// RegisteredToolNames returns all registered tool names sorted alphabetically
func RegisteredToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateTools checks that every name refers to a registered tool
func ValidateTools(toolNames []string) error {
	for _, toolName := range toolNames {
		if _, exists := toolRegistry[toolName]; !exists {
			return errors.Errorf("unknown tool: %s", toolName)
		}
	}
	return nil
}

// GetTools resolves tool names to tools, preserving the requested order.
// An empty selection yields the full default tool set.
func GetTools(toolNames []string) []tooltypes.Tool {
	if len(toolNames) == 0 {
		toolNames = defaultToolOrder
	}

	seen := make(map[string]bool)
	var result []tooltypes.Tool
	for _, toolName := range toolNames {
		if seen[toolName] {
			continue
		}
		seen[toolName] = true
		if tool, exists := toolRegistry[toolName]; exists {
			result = append(result, tool)
		}
	}
	return result
}

func findTool(toolName string) (tooltypes.Tool, error) {
	tool, exists := toolRegistry[toolName]
	if !exists {
		return nil, errors.Errorf("unknown tool: %s", toolName)
	}
	return tool, nil
}

var (
	tracer = telemetry.Tracer("covlet.tools")
)

// RunTool validates and executes a registry tool by name
func RunTool(ctx context.Context, state tooltypes.State, toolName string, parameters string) tooltypes.ToolResult {
	tool, err := findTool(toolName)
	if err != nil {
		return tooltypes.BaseToolResult{
			Error: errors.Wrap(err, "failed to find tool").Error(),
		}
	}

	kvs, err := tool.TracingKVs(parameters)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to get tracing kvs")
	}

	ctx, span := tracer.Start(
		ctx,
		fmt.Sprintf("tools.run_tool.%s", toolName),
		trace.WithAttributes(kvs...),
	)
	defer span.End()

	if err := tool.ValidateInput(state, parameters); err != nil {
		return tooltypes.BaseToolResult{
			Error: err.Error(),
		}
	}

	result := tool.Execute(ctx, state, parameters)
	if result.IsError() {
		logger.G(ctx).WithField("tool", toolName).WithField("error", result.GetError()).Debug("tool execution failed")
	}
	return result
}

// recordRun hands a run record to the state's recorder, if one is configured
func recordRun(ctx context.Context, state tooltypes.State, rec tooltypes.ToolRunRecord) {
	recorder := state.Recorder()
	if recorder == nil {
		return
	}
	if err := recorder.RecordToolRun(ctx, rec); err != nil {
		logger.G(ctx).WithField("tool", rec.Tool).WithError(err).Warn("failed to record tool run")
	}
}
