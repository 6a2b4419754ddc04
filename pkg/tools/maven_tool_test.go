package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

func TestMavenTestToolValidateInput(t *testing.T) {
	tool := &MavenTestTool{}
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	tests := []struct {
		name       string
		parameters string
		wantErr    string
	}{
		{
			name:       "empty input",
			parameters: "{}",
		},
		{
			name:       "with filter",
			parameters: `{"test_filter": "org.example.CalcTest#testAdd"}`,
		},
		{
			name:       "background",
			parameters: `{"background": true}`,
		},
		{
			name:       "negative timeout",
			parameters: `{"timeout": -1}`,
			wantErr:    "timeout must be between",
		},
		{
			name:       "excessive timeout",
			parameters: `{"timeout": 7200}`,
			wantErr:    "timeout must be between",
		},
		{
			name:       "background with timeout",
			parameters: `{"background": true, "timeout": 60}`,
			wantErr:    "background runs must have timeout=0",
		},
		{
			name:       "malformed json",
			parameters: `{`,
			wantErr:    "invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tool.ValidateInput(state, tt.parameters)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMavenTestToolTracingKVs(t *testing.T) {
	tool := &MavenTestTool{}
	kvs, err := tool.TracingKVs(`{"test_filter": "MyTest", "background": true}`)
	require.NoError(t, err)
	assert.Len(t, kvs, 2)
}

func TestMavenReportToolValidateInput(t *testing.T) {
	tool := &MavenReportTool{}
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	assert.NoError(t, tool.ValidateInput(state, "{}"))
	assert.Error(t, tool.ValidateInput(state, `{"timeout": -5}`))
}

func TestBackgroundRunsToolEmpty(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	result := (&BackgroundRunsTool{}).Execute(context.TODO(), state, "{}")
	require.False(t, result.IsError())
	assert.Equal(t, "No background runs", result.GetResult())
}

func TestBackgroundRunsToolListsRuns(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))
	state.AddBackgroundRun(tooltypes.BackgroundRun{
		ID:      "run-1",
		PID:     -1, // never a live pid
		Command: "mvn test",
		LogPath: "/tmp/maven-run-1.log",
	})

	result := (&BackgroundRunsTool{}).Execute(context.TODO(), state, "{}")
	require.False(t, result.IsError())
	assert.Contains(t, result.GetResult(), "run-1")
	assert.Contains(t, result.GetResult(), "exited")

	meta, ok := result.StructuredData().Metadata.(tooltypes.BackgroundRunsMetadata)
	require.True(t, ok)
	require.Len(t, meta.Runs, 1)
	assert.False(t, meta.Runs[0].Alive)
}
