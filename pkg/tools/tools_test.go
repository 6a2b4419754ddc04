package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

func TestRegisteredToolNames(t *testing.T) {
	names := RegisteredToolNames()
	assert.Len(t, names, len(toolRegistry))
	assert.Contains(t, names, "safe_calc")
	assert.Contains(t, names, "maven_test")
	assert.Contains(t, names, "git_push")

	// Sorted output
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestValidateTools(t *testing.T) {
	assert.NoError(t, ValidateTools([]string{"echo", "safe_calc"}))
	assert.NoError(t, ValidateTools(nil))

	err := ValidateTools([]string{"echo", "nonexistent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool: nonexistent")
}

func TestGetTools(t *testing.T) {
	all := GetTools(nil)
	assert.Len(t, all, len(defaultToolOrder))
	assert.Equal(t, "echo", all[0].Name())

	// Requested order is preserved, duplicates collapse
	selected := GetTools([]string{"git_status", "echo", "git_status"})
	require.Len(t, selected, 2)
	assert.Equal(t, "git_status", selected[0].Name())
	assert.Equal(t, "echo", selected[1].Name())

	// Unknown names are dropped
	assert.Empty(t, GetTools([]string{"bogus"}))
}

func TestRegistryNamesMatchToolNames(t *testing.T) {
	for name, tool := range toolRegistry {
		assert.Equal(t, name, tool.Name())
		assert.NotEmpty(t, tool.Description())
		assert.NotNil(t, tool.GenerateSchema())
	}
}

func TestRunToolUnknown(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))
	result := RunTool(context.TODO(), state, "nonexistent", "{}")
	assert.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "unknown tool")
}

func TestRunToolInvalidInput(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))
	result := RunTool(context.TODO(), state, "git_commit", `{"message": ""}`)
	assert.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "message is required")
}

type capturingRecorder struct {
	records []tooltypes.ToolRunRecord
}

func (r *capturingRecorder) RecordToolRun(_ context.Context, rec tooltypes.ToolRunRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func TestRecordRunNilRecorder(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))
	// Must not panic with no recorder configured
	recordRun(context.TODO(), state, tooltypes.ToolRunRecord{Tool: "echo"})
}

func TestRecordRun(t *testing.T) {
	recorder := &capturingRecorder{}
	state := NewBasicState(WithProjectRoot(t.TempDir()), WithRecorder(recorder))

	recordRun(context.TODO(), state, tooltypes.ToolRunRecord{Tool: "maven_test", ExitCode: 1})
	require.Len(t, recorder.records, 1)
	assert.Equal(t, "maven_test", recorder.records[0].Tool)
	assert.Equal(t, 1, recorder.records[0].ExitCode)
}
