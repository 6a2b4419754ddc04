package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &EchoTool{}

// EchoTool returns its input text, used as a connectivity sanity check
type EchoTool struct{}

type EchoInput struct {
	Text string `json:"text" jsonschema:"description=The text to echo back"`
}

type EchoToolResult struct {
	text string
	err  string
}

func (r *EchoToolResult) GetResult() string { return r.text }
func (r *EchoToolResult) GetError() string  { return r.err }
func (r *EchoToolResult) IsError() bool     { return r.err != "" }

func (r *EchoToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.text, r.err)
}

func (r *EchoToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "echo",
		Success:   !r.IsError(),
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata:  tooltypes.EchoMetadata{Text: r.text},
	}
}

func (t *EchoTool) Name() string {
	return "echo"
}

func (t *EchoTool) Description() string {
	return "Echo text back to the caller."
}

func (t *EchoTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[EchoInput]()
}

func (t *EchoTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	return nil, nil
}

func (t *EchoTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &EchoInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	return nil
}

func (t *EchoTool) Execute(_ context.Context, _ tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &EchoInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &EchoToolResult{err: err.Error()}
	}
	return &EchoToolResult{text: input.Text}
}
