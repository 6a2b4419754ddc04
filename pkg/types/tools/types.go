// Package tools defines the tool execution contracts shared by the registry,
// the MCP server, and the CLI.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
)

// Tool is one callable capability in the registry
type Tool interface {
	GenerateSchema() *jsonschema.Schema
	Name() string
	Description() string
	ValidateInput(state State, parameters string) error
	Execute(ctx context.Context, state State, parameters string) ToolResult
	TracingKVs(parameters string) ([]attribute.KeyValue, error)
}

// ToolResult is the outcome of a tool execution. AssistantFacing is the
// textual form relayed to the calling agent; StructuredData feeds the CLI
// renderers and the history store.
type ToolResult interface {
	GetResult() string
	GetError() string
	IsError() bool
	AssistantFacing() string
	StructuredData() StructuredToolResult
}

// BaseToolResult is a plain result with no tool-specific metadata
type BaseToolResult struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

func (r BaseToolResult) GetResult() string { return r.Result }
func (r BaseToolResult) GetError() string  { return r.Error }
func (r BaseToolResult) IsError() bool     { return r.Error != "" }

func (r BaseToolResult) AssistantFacing() string {
	return StringifyToolResult(r.Result, r.Error)
}

func (r BaseToolResult) StructuredData() StructuredToolResult {
	return StructuredToolResult{
		ToolName:  "unknown",
		Success:   !r.IsError(),
		Error:     r.Error,
		Timestamp: time.Now(),
	}
}

// StringifyToolResult renders a result and error into the block format the
// consuming agent receives. The result section is always present.
func StringifyToolResult(result, err string) string {
	out := ""
	if err != "" {
		out = fmt.Sprintf("<error>\n%s\n</error>\n", err)
	}
	if result == "" {
		result = "(No output)"
	}
	out += fmt.Sprintf("<result>\n%s\n</result>\n", result)
	return out
}

// BackgroundRun tracks a Maven invocation running outside the request path
type BackgroundRun struct {
	ID        string
	PID       int
	Command   string
	LogPath   string
	StartTime time.Time
}

// ToolRunRecord is what tools hand to the history store after a run
type ToolRunRecord struct {
	Tool      string
	Command   string
	ExitCode  int
	LinePct   *float64
	BranchPct *float64
}

// RunRecorder persists tool run records. Implemented by the history store;
// a nil recorder on the state disables recording.
type RunRecorder interface {
	RecordToolRun(ctx context.Context, rec ToolRunRecord) error
}

// State carries the project context tools execute against
type State interface {
	ProjectRoot() string
	PomPath() string
	ReportPath() string
	LogDir() string
	BackgroundRuns() []BackgroundRun
	AddBackgroundRun(run BackgroundRun)
	Recorder() RunRecorder
}
