package tools

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covlet/covlet/pkg/jacoco"
)

func TestStructuredToolResultRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		result StructuredToolResult
	}{
		{
			name: "maven test metadata",
			result: StructuredToolResult{
				ToolName:  "maven_test",
				Success:   true,
				Timestamp: time.Now(),
				Metadata: MavenTestMetadata{
					Command:       "mvn -f pom.xml -B test",
					Dir:           "/project",
					ExitCode:      0,
					StdoutTail:    "BUILD SUCCESS",
					ExecutionTime: 3 * time.Second,
				},
			},
		},
		{
			name: "coverage metadata",
			result: StructuredToolResult{
				ToolName:  "parse_jacoco",
				Success:   true,
				Timestamp: time.Now(),
				Metadata: CoverageMetadata{
					ReportPath: "/project/target/site/jacoco/jacoco.xml",
					LinePct:    81.25,
					BranchPct:  64.0,
				},
			},
		},
		{
			name: "uncovered classes metadata",
			result: StructuredToolResult{
				ToolName:  "uncovered_classes",
				Success:   true,
				Timestamp: time.Now(),
				Metadata: UncoveredMetadata{
					ReportPath: "/project/target/site/jacoco/jacoco.xml",
					Threshold:  80.0,
					Classes: []jacoco.ClassCoverage{
						{Name: "org.example.Parser", LinePct: 20.0},
					},
				},
			},
		},
		{
			name: "git metadata",
			result: StructuredToolResult{
				ToolName:  "git_commit",
				Success:   true,
				Timestamp: time.Now(),
				Metadata: GitMetadata{
					Subcommand: "commit",
					Command:    "git commit -m msg",
					Dir:        "/project",
				},
			},
		},
		{
			name: "no metadata with error",
			result: StructuredToolResult{
				ToolName:  "safe_calc",
				Success:   false,
				Error:     "unsupported expression",
				Timestamp: time.Now(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)

			var decoded StructuredToolResult
			require.NoError(t, json.Unmarshal(data, &decoded))

			assert.Equal(t, tt.result.ToolName, decoded.ToolName)
			assert.Equal(t, tt.result.Success, decoded.Success)
			assert.Equal(t, tt.result.Error, decoded.Error)

			if tt.result.Metadata == nil {
				assert.Nil(t, decoded.Metadata)
			} else {
				require.NotNil(t, decoded.Metadata)
				assert.Equal(t, tt.result.Metadata.ToolType(), decoded.Metadata.ToolType())
			}
		})
	}
}

func TestUnmarshalUnknownMetadataType(t *testing.T) {
	raw := `{
		"toolName": "future_tool",
		"success": true,
		"timestamp": "2026-01-01T00:00:00Z",
		"metadataType": "future_type",
		"metadata": {"someField": "value"}
	}`

	var result StructuredToolResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	assert.Equal(t, "future_tool", result.ToolName)
	assert.Nil(t, result.Metadata)
}

func TestMetadataTypeRegistryCompleteness(t *testing.T) {
	expectedTypes := []string{
		"echo", "safe_calc", "maven_test", "coverage",
		"uncovered_classes", "git", "background_runs",
	}

	for _, typeName := range expectedTypes {
		assert.Contains(t, metadataTypeRegistry, typeName)
	}
	assert.Equal(t, len(expectedTypes), len(metadataTypeRegistry))
}
