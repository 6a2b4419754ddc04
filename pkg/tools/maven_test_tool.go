package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/covlet/covlet/pkg/maven"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &MavenTestTool{}

// MavenTestTool runs the project's test suite via Maven, optionally filtered
// to a single test class or method, in the foreground or the background.
type MavenTestTool struct{}

type MavenTestInput struct {
	TestFilter string `json:"test_filter,omitempty" jsonschema:"description=Optional -Dtest filter\\, e.g. 'org.example.MyTest' or 'org.example.MyTest#method'"`
	Background bool   `json:"background,omitempty" jsonschema:"description=Run the tests in the background and return immediately,default=false"`
	Timeout    int    `json:"timeout,omitempty" jsonschema:"description=Timeout in seconds for a foreground run,default=600"`
}

const (
	defaultMavenTimeout = 600
	maxMavenTimeout     = 3600
)

type MavenTestToolResult struct {
	result maven.Result
	filter string
	err    string
}

func (r *MavenTestToolResult) GetResult() string {
	out := fmt.Sprintf("Command: %s\nExit code: %d\n", r.result.Command, r.result.ExitCode)
	if r.result.StdoutTail != "" {
		out += fmt.Sprintf("Stdout (tail):\n%s\n", r.result.StdoutTail)
	}
	if r.result.StderrTail != "" {
		out += fmt.Sprintf("Stderr (tail):\n%s\n", r.result.StderrTail)
	}
	return out
}

func (r *MavenTestToolResult) GetError() string { return r.err }
func (r *MavenTestToolResult) IsError() bool    { return r.err != "" }

func (r *MavenTestToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), r.err)
}

func (r *MavenTestToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "maven_test",
		Success:   !r.IsError() && r.result.ExitCode == 0,
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata: tooltypes.MavenTestMetadata{
			Command:       r.result.Command,
			Dir:           r.result.Dir,
			TestFilter:    r.filter,
			ExitCode:      r.result.ExitCode,
			StdoutTail:    r.result.StdoutTail,
			StderrTail:    r.result.StderrTail,
			ExecutionTime: time.Duration(r.result.DurationMs) * time.Millisecond,
		},
	}
}

type BackgroundMavenToolResult struct {
	run maven.Run
	err string
}

func (r *BackgroundMavenToolResult) GetResult() string {
	return fmt.Sprintf("Maven run started in background, output can be viewed at %s", r.run.LogPath)
}

func (r *BackgroundMavenToolResult) GetError() string { return r.err }
func (r *BackgroundMavenToolResult) IsError() bool    { return r.err != "" }

func (r *BackgroundMavenToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), r.err)
}

func (r *BackgroundMavenToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "maven_test",
		Success:   !r.IsError(),
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata: tooltypes.MavenTestMetadata{
			Command:    r.run.Command,
			Background: true,
			RunID:      r.run.ID,
			PID:        r.run.PID,
			LogPath:    r.run.LogPath,
		},
	}
}

func (t *MavenTestTool) Name() string {
	return "maven_test"
}

func (t *MavenTestTool) Description() string {
	return "Run Maven tests with an optional -Dtest filter and return the tail output."
}

func (t *MavenTestTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[MavenTestInput]()
}

func (t *MavenTestTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &MavenTestInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("test_filter", input.TestFilter),
		attribute.Bool("background", input.Background),
	}, nil
}

func (t *MavenTestTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &MavenTestInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	if input.Timeout < 0 || input.Timeout > maxMavenTimeout {
		return errors.Errorf("timeout must be between 0 and %d seconds", maxMavenTimeout)
	}
	if input.Background && input.Timeout != 0 {
		return errors.New("background runs must have timeout=0 (no timeout)")
	}
	return nil
}

func (t *MavenTestTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &MavenTestInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &MavenTestToolResult{err: err.Error()}
	}

	runner := maven.NewRunner(state.ProjectRoot(), state.PomPath())

	if input.Background {
		run, err := runner.Start(ctx, []string{"test"}, input.TestFilter, state.LogDir())
		if err != nil {
			return &BackgroundMavenToolResult{err: err.Error()}
		}
		state.AddBackgroundRun(tooltypes.BackgroundRun{
			ID:        run.ID,
			PID:       run.PID,
			Command:   run.Command,
			LogPath:   run.LogPath,
			StartTime: run.StartTime,
		})
		return &BackgroundMavenToolResult{run: run}
	}

	timeout := input.Timeout
	if timeout == 0 {
		timeout = defaultMavenTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	result, err := runner.Run(ctx, []string{"test"}, input.TestFilter)
	if err != nil {
		return &MavenTestToolResult{result: result, filter: input.TestFilter, err: err.Error()}
	}

	recordRun(ctx, state, tooltypes.ToolRunRecord{
		Tool:     "maven_test",
		Command:  result.Command,
		ExitCode: result.ExitCode,
	})

	return &MavenTestToolResult{result: result, filter: input.TestFilter}
}
