package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/covlet/covlet/pkg/jacoco"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &UncoveredClassesTool{}

// UncoveredClassesTool lists classes whose line coverage falls below a
// threshold, from an existing JaCoCo report.
type UncoveredClassesTool struct{}

// DefaultCoverageThreshold is the line coverage percentage below which a
// class is reported as uncovered.
const DefaultCoverageThreshold = 80.0

type UncoveredClassesInput struct {
	ReportPath string   `json:"report_path,omitempty" jsonschema:"description=Path to a jacoco.xml report; defaults to the project's conventional report location"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"description=Line coverage percentage below which a class is reported,default=80"`
}

type UncoveredClassesToolResult struct {
	reportPath string
	threshold  float64
	classes    []jacoco.ClassCoverage
	err        string
}

func (r *UncoveredClassesToolResult) GetResult() string {
	if len(r.classes) == 0 {
		return fmt.Sprintf("All classes meet the %.1f%% line coverage threshold", r.threshold)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d class(es) below %.1f%% line coverage:\n", len(r.classes), r.threshold)
	for _, c := range r.classes {
		fmt.Fprintf(&sb, "  %s: %.2f%%\n", c.Name, c.LinePct)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *UncoveredClassesToolResult) GetError() string { return r.err }
func (r *UncoveredClassesToolResult) IsError() bool    { return r.err != "" }

func (r *UncoveredClassesToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), r.err)
}

func (r *UncoveredClassesToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "uncovered_classes",
		Success:   !r.IsError(),
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata: tooltypes.UncoveredMetadata{
			ReportPath: r.reportPath,
			Threshold:  r.threshold,
			Classes:    r.classes,
		},
	}
}

func (t *UncoveredClassesTool) Name() string {
	return "uncovered_classes"
}

func (t *UncoveredClassesTool) Description() string {
	return "List classes whose line coverage is below a threshold, from an existing JaCoCo report."
}

func (t *UncoveredClassesTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[UncoveredClassesInput]()
}

func (t *UncoveredClassesTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &UncoveredClassesInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return nil, err
	}
	kvs := []attribute.KeyValue{
		attribute.String("report_path", input.ReportPath),
	}
	if input.Threshold != nil {
		kvs = append(kvs, attribute.Float64("threshold", *input.Threshold))
	}
	return kvs, nil
}

func (t *UncoveredClassesTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &UncoveredClassesInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return err
	}
	if input.Threshold != nil && (*input.Threshold < 0 || *input.Threshold > 100) {
		return errors.Errorf("threshold must be between 0 and 100, got %v", *input.Threshold)
	}
	return nil
}

func (t *UncoveredClassesTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &UncoveredClassesInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &UncoveredClassesToolResult{err: err.Error()}
	}

	threshold := DefaultCoverageThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}

	reportPath := input.ReportPath
	if reportPath == "" {
		reportPath = state.ReportPath()
	}

	out := &UncoveredClassesToolResult{reportPath: reportPath, threshold: threshold}

	if !jacoco.Exists(reportPath) {
		out.err = fmt.Sprintf("jacoco report not found at %s, run maven_report first", reportPath)
		return out
	}

	report, err := jacoco.ParseFile(reportPath)
	if err != nil {
		out.err = err.Error()
		return out
	}

	out.classes = report.UncoveredClasses(threshold)
	return out
}
