package renderers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/covlet/covlet/pkg/types/tools"
)

// EchoRenderer renders echo results
type EchoRenderer struct{}

func (r *EchoRenderer) RenderCLI(result tools.StructuredToolResult) string {
	if !result.Success {
		return fmt.Sprintf("Error: %s", result.Error)
	}

	var meta tools.EchoMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for echo"
	}
	return meta.Text
}

// CalcRenderer renders safe_calc results
type CalcRenderer struct{}

func (r *CalcRenderer) RenderCLI(result tools.StructuredToolResult) string {
	if !result.Success {
		return fmt.Sprintf("Error: %s", result.Error)
	}

	var meta tools.CalcMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for safe_calc"
	}
	return fmt.Sprintf("%s = %s", meta.Expression, strconv.FormatFloat(meta.Value, 'f', -1, 64))
}

// MavenTestRenderer renders maven_test results, both foreground and background
type MavenTestRenderer struct{}

func (r *MavenTestRenderer) RenderCLI(result tools.StructuredToolResult) string {
	var output strings.Builder
	if result.Error != "" {
		fmt.Fprintf(&output, "Error: %s\n", result.Error)
	}

	var meta tools.MavenTestMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for maven_test"
	}

	if meta.Background {
		fmt.Fprintf(&output, "Background Command: %s\n", meta.Command)
		fmt.Fprintf(&output, "Run ID: %s\n", meta.RunID)
		fmt.Fprintf(&output, "Process ID: %d\n", meta.PID)
		fmt.Fprintf(&output, "Log File: %s\n", meta.LogPath)
		output.WriteString("\nThe run is executing in the background. Check the log file for output.")
		return output.String()
	}

	fmt.Fprintf(&output, "Command: %s\n", meta.Command)
	fmt.Fprintf(&output, "Exit Code: %d\n", meta.ExitCode)
	if meta.TestFilter != "" {
		fmt.Fprintf(&output, "Test Filter: %s\n", meta.TestFilter)
	}
	fmt.Fprintf(&output, "Execution Time: %v\n", meta.ExecutionTime)

	if meta.StdoutTail != "" {
		output.WriteString("\nOutput (tail):\n")
		output.WriteString(meta.StdoutTail)
	}
	if meta.StderrTail != "" {
		output.WriteString("\nStderr (tail):\n")
		output.WriteString(meta.StderrTail)
	}
	return output.String()
}

// CoverageRenderer renders maven_report and parse_jacoco results
type CoverageRenderer struct{}

func (r *CoverageRenderer) RenderCLI(result tools.StructuredToolResult) string {
	var output strings.Builder
	if result.Error != "" {
		fmt.Fprintf(&output, "Error: %s\n", result.Error)
	}

	var meta tools.CoverageMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for coverage"
	}

	if meta.Command != "" {
		fmt.Fprintf(&output, "Command: %s\n", meta.Command)
		fmt.Fprintf(&output, "Exit Code: %d\n", meta.ExitCode)
	}
	fmt.Fprintf(&output, "Report: %s\n", meta.ReportPath)
	fmt.Fprintf(&output, "Line Coverage: %.2f%%\n", meta.LinePct)
	fmt.Fprintf(&output, "Branch Coverage: %.2f%%", meta.BranchPct)
	return output.String()
}

// UncoveredRenderer renders uncovered_classes results
type UncoveredRenderer struct{}

func (r *UncoveredRenderer) RenderCLI(result tools.StructuredToolResult) string {
	if !result.Success {
		return fmt.Sprintf("Error: %s", result.Error)
	}

	var meta tools.UncoveredMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for uncovered_classes"
	}

	var output strings.Builder
	fmt.Fprintf(&output, "Threshold: %.1f%%\n", meta.Threshold)
	if len(meta.Classes) == 0 {
		output.WriteString("All classes meet the threshold")
		return output.String()
	}
	fmt.Fprintf(&output, "%d class(es) below threshold:\n", len(meta.Classes))
	for _, c := range meta.Classes {
		fmt.Fprintf(&output, "  %s: %.2f%%\n", c.Name, c.LinePct)
	}
	return strings.TrimRight(output.String(), "\n")
}

// GitRenderer renders results from all git_* tools
type GitRenderer struct{}

func (r *GitRenderer) RenderCLI(result tools.StructuredToolResult) string {
	var output strings.Builder
	if result.Error != "" {
		fmt.Fprintf(&output, "Error: %s\n", result.Error)
	}

	var meta tools.GitMetadata
	if !extractMetadata(result.Metadata, &meta) {
		if result.Error != "" {
			return strings.TrimRight(output.String(), "\n")
		}
		return "Error: Invalid metadata type for git"
	}

	fmt.Fprintf(&output, "Command: %s\n", meta.Command)
	fmt.Fprintf(&output, "Exit Code: %d\n", meta.ExitCode)
	if meta.StdoutTail != "" {
		output.WriteString("\nOutput:\n")
		output.WriteString(meta.StdoutTail)
	}
	if meta.StderrTail != "" {
		output.WriteString("\nStderr:\n")
		output.WriteString(meta.StderrTail)
	}
	return output.String()
}

// BackgroundRunsRenderer renders the background run listing
type BackgroundRunsRenderer struct{}

func (r *BackgroundRunsRenderer) RenderCLI(result tools.StructuredToolResult) string {
	if !result.Success {
		return fmt.Sprintf("Error: %s", result.Error)
	}

	var meta tools.BackgroundRunsMetadata
	if !extractMetadata(result.Metadata, &meta) {
		return "Error: Invalid metadata type for background_runs"
	}

	if len(meta.Runs) == 0 {
		return "No background runs"
	}

	var output strings.Builder
	fmt.Fprintf(&output, "%d background run(s):\n", len(meta.Runs))
	for _, run := range meta.Runs {
		status := "exited"
		if run.Alive {
			status = fmt.Sprintf("running (cpu %.1f%%, rss %d)", run.CPUPercent, run.MemoryRSS)
		}
		fmt.Fprintf(&output, "  %s  pid=%d  %s\n", run.ID, run.PID, status)
		fmt.Fprintf(&output, "    command: %s\n", run.Command)
		fmt.Fprintf(&output, "    log: %s\n", run.LogPath)
	}
	return strings.TrimRight(output.String(), "\n")
}
