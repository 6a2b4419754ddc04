package tools

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &SafeCalcTool{}

// SafeCalcTool evaluates arithmetic expressions over a fixed operator
// whitelist: + - * / ** with unary minus and parentheses. Anything else is
// rejected.
type SafeCalcTool struct{}

type SafeCalcInput struct {
	Expression string `json:"expression" jsonschema:"description=The arithmetic expression to evaluate\\, e.g. '1+2*3'"`
}

type SafeCalcToolResult struct {
	expression string
	value      float64
	err        string
}

func (r *SafeCalcToolResult) GetResult() string {
	return strconv.FormatFloat(r.value, 'f', -1, 64)
}

func (r *SafeCalcToolResult) GetError() string { return r.err }
func (r *SafeCalcToolResult) IsError() bool    { return r.err != "" }

func (r *SafeCalcToolResult) AssistantFacing() string {
	if r.IsError() {
		return tooltypes.StringifyToolResult("", r.err)
	}
	return tooltypes.StringifyToolResult(r.GetResult(), "")
}

func (r *SafeCalcToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "safe_calc",
		Success:   !r.IsError(),
		Error:     r.err,
		Timestamp: time.Now(),
	}
	if !r.IsError() {
		result.Metadata = tooltypes.CalcMetadata{
			Expression: r.expression,
			Value:      r.value,
		}
	}
	return result
}

func (t *SafeCalcTool) Name() string {
	return "safe_calc"
}

func (t *SafeCalcTool) Description() string {
	return "Evaluate an arithmetic expression, e.g. '1+2*3'. Supports + - * / ** and parentheses."
}

func (t *SafeCalcTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[SafeCalcInput]()
}

func (t *SafeCalcTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &SafeCalcInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("expression", input.Expression),
	}, nil
}

func (t *SafeCalcTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &SafeCalcInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	if strings.TrimSpace(input.Expression) == "" {
		return errors.New("expression is required")
	}
	return nil
}

func (t *SafeCalcTool) Execute(_ context.Context, _ tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &SafeCalcInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &SafeCalcToolResult{err: err.Error()}
	}

	value, err := Evaluate(input.Expression)
	if err != nil {
		return &SafeCalcToolResult{expression: input.Expression, err: err.Error()}
	}

	return &SafeCalcToolResult{expression: input.Expression, value: value}
}
