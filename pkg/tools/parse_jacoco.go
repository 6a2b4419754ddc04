package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"

	"github.com/covlet/covlet/pkg/jacoco"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &ParseJacocoTool{}

// ParseJacocoTool reads an existing JaCoCo XML report and reports aggregate
// line and branch coverage without running any build.
type ParseJacocoTool struct{}

type ParseJacocoInput struct {
	ReportPath string `json:"report_path,omitempty" jsonschema:"description=Path to a jacoco.xml report; defaults to the project's conventional report location"`
}

type ParseJacocoToolResult struct {
	reportPath string
	summary    jacoco.Summary
	err        string
}

func (r *ParseJacocoToolResult) GetResult() string {
	return fmt.Sprintf("Report: %s\nLine coverage: %.2f%%\nBranch coverage: %.2f%%",
		r.reportPath, r.summary.LinePct, r.summary.BranchPct)
}

func (r *ParseJacocoToolResult) GetError() string { return r.err }
func (r *ParseJacocoToolResult) IsError() bool    { return r.err != "" }

func (r *ParseJacocoToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), r.err)
}

func (r *ParseJacocoToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "parse_jacoco",
		Success:   !r.IsError(),
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata: tooltypes.CoverageMetadata{
			ReportPath: r.reportPath,
			LinePct:    r.summary.LinePct,
			BranchPct:  r.summary.BranchPct,
		},
	}
}

func (t *ParseJacocoTool) Name() string {
	return "parse_jacoco"
}

func (t *ParseJacocoTool) Description() string {
	return "Parse an existing JaCoCo XML report and return line and branch coverage percentages."
}

func (t *ParseJacocoTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[ParseJacocoInput]()
}

func (t *ParseJacocoTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &ParseJacocoInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("report_path", input.ReportPath),
	}, nil
}

func (t *ParseJacocoTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &ParseJacocoInput{}
	return json.Unmarshal([]byte(parameters), input)
}

func (t *ParseJacocoTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &ParseJacocoInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &ParseJacocoToolResult{err: err.Error()}
	}

	reportPath := input.ReportPath
	if reportPath == "" {
		reportPath = state.ReportPath()
	}

	if !jacoco.Exists(reportPath) {
		return &ParseJacocoToolResult{
			reportPath: reportPath,
			err:        fmt.Sprintf("jacoco report not found at %s, run maven_report first", reportPath),
		}
	}

	report, err := jacoco.ParseFile(reportPath)
	if err != nil {
		return &ParseJacocoToolResult{reportPath: reportPath, err: err.Error()}
	}

	out := &ParseJacocoToolResult{reportPath: reportPath, summary: report.Summary()}
	recordRun(ctx, state, tooltypes.ToolRunRecord{
		Tool:      "parse_jacoco",
		LinePct:   &out.summary.LinePct,
		BranchPct: &out.summary.BranchPct,
	})
	return out
}
