package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/covlet/covlet/pkg/jacoco"
	"github.com/covlet/covlet/pkg/maven"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &MavenReportTool{}

// MavenReportTool runs `mvn clean test jacoco:report` and parses the
// resulting coverage report into a summary.
type MavenReportTool struct{}

type MavenReportInput struct {
	TestFilter string `json:"test_filter,omitempty" jsonschema:"description=Optional -Dtest filter restricting which tests contribute coverage"`
	Timeout    int    `json:"timeout,omitempty" jsonschema:"description=Timeout in seconds,default=600"`
}

type MavenReportToolResult struct {
	result     maven.Result
	reportPath string
	summary    jacoco.Summary
	err        string
}

func (r *MavenReportToolResult) GetResult() string {
	out := fmt.Sprintf("Command: %s\nExit code: %d\n", r.result.Command, r.result.ExitCode)
	out += fmt.Sprintf("Line coverage: %.2f%%\nBranch coverage: %.2f%%\n", r.summary.LinePct, r.summary.BranchPct)
	if r.result.StdoutTail != "" {
		out += fmt.Sprintf("Stdout (tail):\n%s\n", r.result.StdoutTail)
	}
	return out
}

func (r *MavenReportToolResult) GetError() string { return r.err }
func (r *MavenReportToolResult) IsError() bool    { return r.err != "" }

func (r *MavenReportToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), r.err)
}

func (r *MavenReportToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "maven_report",
		Success:   !r.IsError() && r.result.ExitCode == 0,
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata: tooltypes.CoverageMetadata{
			ReportPath: r.reportPath,
			LinePct:    r.summary.LinePct,
			BranchPct:  r.summary.BranchPct,
			Command:    r.result.Command,
			ExitCode:   r.result.ExitCode,
		},
	}
}

func (t *MavenReportTool) Name() string {
	return "maven_report"
}

func (t *MavenReportTool) Description() string {
	return "Run 'mvn clean test jacoco:report' and return the aggregate line and branch coverage."
}

func (t *MavenReportTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[MavenReportInput]()
}

func (t *MavenReportTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &MavenReportInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("test_filter", input.TestFilter),
	}, nil
}

func (t *MavenReportTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &MavenReportInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return err
	}
	if input.Timeout < 0 || input.Timeout > maxMavenTimeout {
		return errors.Errorf("timeout must be between 0 and %d seconds", maxMavenTimeout)
	}
	return nil
}

func (t *MavenReportTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &MavenReportInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &MavenReportToolResult{err: err.Error()}
	}

	timeout := input.Timeout
	if timeout == 0 {
		timeout = defaultMavenTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	runner := maven.NewRunner(state.ProjectRoot(), state.PomPath())
	result, err := runner.Run(ctx, []string{"clean", "test", "jacoco:report"}, input.TestFilter)
	if err != nil {
		return &MavenReportToolResult{result: result, err: err.Error()}
	}

	out := &MavenReportToolResult{result: result, reportPath: state.ReportPath()}

	// The report only exists when the build got far enough; a failed build
	// still returns its exit code with a zero summary.
	if jacoco.Exists(out.reportPath) {
		report, err := jacoco.ParseFile(out.reportPath)
		if err != nil {
			out.err = err.Error()
			return out
		}
		out.summary = report.Summary()
	}

	recordRun(ctx, state, tooltypes.ToolRunRecord{
		Tool:      "maven_report",
		Command:   result.Command,
		ExitCode:  result.ExitCode,
		LinePct:   &out.summary.LinePct,
		BranchPct: &out.summary.BranchPct,
	})

	return out
}
