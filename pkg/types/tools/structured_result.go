package tools

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/covlet/covlet/pkg/jacoco"
)

// StructuredToolResult represents a tool's execution result with structured metadata
type StructuredToolResult struct {
	ToolName  string       `json:"toolName"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Metadata  ToolMetadata `json:"metadata,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// rawStructuredToolResult is used for JSON marshaling/unmarshaling
type rawStructuredToolResult struct {
	ToolName     string          `json:"toolName"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	MetadataType string          `json:"metadataType,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// MarshalJSON implements custom JSON marshaling for StructuredToolResult
func (s StructuredToolResult) MarshalJSON() ([]byte, error) {
	raw := rawStructuredToolResult{
		ToolName:  s.ToolName,
		Success:   s.Success,
		Error:     s.Error,
		Timestamp: s.Timestamp,
	}

	if s.Metadata != nil {
		raw.MetadataType = s.Metadata.ToolType()

		metadataBytes, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal metadata")
		}
		raw.Metadata = metadataBytes
	}

	return json.Marshal(raw)
}

// metadataTypeRegistry maps metadata type strings to their corresponding Go types
var metadataTypeRegistry = map[string]reflect.Type{
	"echo":              reflect.TypeOf(EchoMetadata{}),
	"safe_calc":         reflect.TypeOf(CalcMetadata{}),
	"maven_test":        reflect.TypeOf(MavenTestMetadata{}),
	"coverage":          reflect.TypeOf(CoverageMetadata{}),
	"uncovered_classes": reflect.TypeOf(UncoveredMetadata{}),
	"git":               reflect.TypeOf(GitMetadata{}),
	"background_runs":   reflect.TypeOf(BackgroundRunsMetadata{}),
}

// UnmarshalJSON implements custom JSON unmarshaling for StructuredToolResult
func (s *StructuredToolResult) UnmarshalJSON(data []byte) error {
	var raw rawStructuredToolResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.ToolName = raw.ToolName
	s.Success = raw.Success
	s.Error = raw.Error
	s.Timestamp = raw.Timestamp

	if raw.MetadataType != "" && len(raw.Metadata) > 0 {
		metadataType, exists := metadataTypeRegistry[raw.MetadataType]
		if !exists {
			// Unknown metadata type, leave as nil
			return nil
		}

		metadataPtr := reflect.New(metadataType)
		if err := json.Unmarshal(raw.Metadata, metadataPtr.Interface()); err != nil {
			return errors.Wrapf(err, "failed to unmarshal metadata of type %s", raw.MetadataType)
		}

		s.Metadata = metadataPtr.Elem().Interface().(ToolMetadata)
	}

	return nil
}

// ToolMetadata is a marker interface for tool-specific metadata structures
type ToolMetadata interface {
	ToolType() string
}

type EchoMetadata struct {
	Text string `json:"text"`
}

func (m EchoMetadata) ToolType() string { return "echo" }

type CalcMetadata struct {
	Expression string  `json:"expression"`
	Value      float64 `json:"value"`
}

func (m CalcMetadata) ToolType() string { return "safe_calc" }

type MavenTestMetadata struct {
	Command       string        `json:"command"`
	Dir           string        `json:"dir"`
	TestFilter    string        `json:"testFilter,omitempty"`
	ExitCode      int           `json:"exitCode"`
	StdoutTail    string        `json:"stdoutTail"`
	StderrTail    string        `json:"stderrTail"`
	ExecutionTime time.Duration `json:"executionTime"`
	Background    bool          `json:"background,omitempty"`
	RunID         string        `json:"runId,omitempty"`
	PID           int           `json:"pid,omitempty"`
	LogPath       string        `json:"logPath,omitempty"`
}

func (m MavenTestMetadata) ToolType() string { return "maven_test" }

// CoverageMetadata is shared by maven_report and parse_jacoco
type CoverageMetadata struct {
	ReportPath string  `json:"reportPath"`
	LinePct    float64 `json:"linePct"`
	BranchPct  float64 `json:"branchPct"`
	Command    string  `json:"command,omitempty"`
	ExitCode   int     `json:"exitCode,omitempty"`
}

func (m CoverageMetadata) ToolType() string { return "coverage" }

type UncoveredMetadata struct {
	ReportPath string                 `json:"reportPath"`
	Threshold  float64                `json:"threshold"`
	Classes    []jacoco.ClassCoverage `json:"classes"`
}

func (m UncoveredMetadata) ToolType() string { return "uncovered_classes" }

type GitMetadata struct {
	Subcommand string `json:"subcommand"`
	Command    string `json:"command"`
	Dir        string `json:"dir"`
	ExitCode   int    `json:"exitCode"`
	StdoutTail string `json:"stdoutTail"`
	StderrTail string `json:"stderrTail"`
}

func (m GitMetadata) ToolType() string { return "git" }

type BackgroundRunInfo struct {
	ID         string    `json:"id"`
	PID        int       `json:"pid"`
	Command    string    `json:"command"`
	LogPath    string    `json:"logPath"`
	StartTime  time.Time `json:"startTime"`
	Alive      bool      `json:"alive"`
	CPUPercent float64   `json:"cpuPercent,omitempty"`
	MemoryRSS  uint64    `json:"memoryRss,omitempty"`
}

type BackgroundRunsMetadata struct {
	Runs []BackgroundRunInfo `json:"runs"`
}

func (m BackgroundRunsMetadata) ToolType() string { return "background_runs" }
