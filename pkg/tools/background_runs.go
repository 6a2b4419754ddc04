package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"

	"github.com/covlet/covlet/pkg/maven"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.Tool = &BackgroundRunsTool{}

// BackgroundRunsTool lists background Maven runs and their liveness
type BackgroundRunsTool struct{}

func (t *BackgroundRunsTool) Name() string { return "background_runs" }

func (t *BackgroundRunsTool) Description() string {
	return "List background Maven runs started in this session with their status and log paths."
}

func (t *BackgroundRunsTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[emptyInput]()
}

func (t *BackgroundRunsTool) TracingKVs(_ string) ([]attribute.KeyValue, error) {
	return nil, nil
}

func (t *BackgroundRunsTool) ValidateInput(_ tooltypes.State, _ string) error {
	return nil
}

type BackgroundRunsToolResult struct {
	runs []tooltypes.BackgroundRunInfo
}

func (r *BackgroundRunsToolResult) GetResult() string {
	if len(r.runs) == 0 {
		return "No background runs"
	}
	var sb strings.Builder
	for _, run := range r.runs {
		status := "exited"
		if run.Alive {
			status = "running"
		}
		fmt.Fprintf(&sb, "%s  pid=%d  %s  started=%s  log=%s\n",
			run.ID, run.PID, status, run.StartTime.Format(time.RFC3339), run.LogPath)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *BackgroundRunsToolResult) GetError() string { return "" }
func (r *BackgroundRunsToolResult) IsError() bool    { return false }

func (r *BackgroundRunsToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), "")
}

func (r *BackgroundRunsToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  "background_runs",
		Success:   true,
		Timestamp: time.Now(),
		Metadata:  tooltypes.BackgroundRunsMetadata{Runs: r.runs},
	}
}

func (t *BackgroundRunsTool) Execute(_ context.Context, state tooltypes.State, _ string) tooltypes.ToolResult {
	runs := state.BackgroundRuns()
	infos := make([]tooltypes.BackgroundRunInfo, 0, len(runs))
	for _, run := range runs {
		status := maven.Status(maven.Run{ID: run.ID, PID: run.PID})
		infos = append(infos, tooltypes.BackgroundRunInfo{
			ID:         run.ID,
			PID:        run.PID,
			Command:    run.Command,
			LogPath:    run.LogPath,
			StartTime:  run.StartTime,
			Alive:      status.Alive,
			CPUPercent: status.CPUPercent,
			MemoryRSS:  status.MemoryRSS,
		})
	}
	return &BackgroundRunsToolResult{runs: infos}
}
