package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

const sampleJacocoReport = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<report name="demo">
  <package name="org/example">
    <class name="org/example/Calculator" sourcefilename="Calculator.java">
      <counter type="LINE" missed="1" covered="9"/>
      <counter type="BRANCH" missed="1" covered="3"/>
    </class>
    <class name="org/example/Parser" sourcefilename="Parser.java">
      <counter type="LINE" missed="8" covered="2"/>
      <counter type="BRANCH" missed="4" covered="0"/>
    </class>
  </package>
</report>`

func stateWithReport(t *testing.T) *BasicState {
	t.Helper()
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "jacoco.xml")
	require.NoError(t, os.WriteFile(reportPath, []byte(sampleJacocoReport), 0o644))
	return NewBasicState(WithProjectRoot(dir), WithReportPath(reportPath))
}

func TestParseJacocoTool(t *testing.T) {
	state := stateWithReport(t)

	result := (&ParseJacocoTool{}).Execute(context.TODO(), state, "{}")
	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), "Line coverage: 55.00%")
	assert.Contains(t, result.GetResult(), "Branch coverage: 37.50%")

	structured := result.StructuredData()
	meta, ok := structured.Metadata.(tooltypes.CoverageMetadata)
	require.True(t, ok)
	assert.InDelta(t, 55.0, meta.LinePct, 0.01)
	assert.InDelta(t, 37.5, meta.BranchPct, 0.01)
	assert.Equal(t, state.ReportPath(), meta.ReportPath)
}

func TestParseJacocoToolMissingReport(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	result := (&ParseJacocoTool{}).Execute(context.TODO(), state, "{}")
	require.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "run maven_report first")
}

func TestParseJacocoToolExplicitPath(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "custom.xml")
	require.NoError(t, os.WriteFile(reportPath, []byte(sampleJacocoReport), 0o644))

	// State points elsewhere; the explicit path wins
	state := NewBasicState(WithProjectRoot(t.TempDir()))
	result := (&ParseJacocoTool{}).Execute(context.TODO(), state, `{"report_path": "`+reportPath+`"}`)
	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), reportPath)
}

func TestParseJacocoToolRecordsRun(t *testing.T) {
	recorder := &capturingRecorder{}
	state := stateWithReport(t)
	WithRecorder(recorder)(state)

	result := (&ParseJacocoTool{}).Execute(context.TODO(), state, "{}")
	require.False(t, result.IsError())
	require.Len(t, recorder.records, 1)
	assert.Equal(t, "parse_jacoco", recorder.records[0].Tool)
	require.NotNil(t, recorder.records[0].LinePct)
	assert.InDelta(t, 55.0, *recorder.records[0].LinePct, 0.01)
}

func TestUncoveredClassesTool(t *testing.T) {
	state := stateWithReport(t)
	tool := &UncoveredClassesTool{}

	result := tool.Execute(context.TODO(), state, "{}")
	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), "org.example.Parser: 20.00%")
	assert.NotContains(t, result.GetResult(), "Calculator")

	meta, ok := result.StructuredData().Metadata.(tooltypes.UncoveredMetadata)
	require.True(t, ok)
	assert.Equal(t, DefaultCoverageThreshold, meta.Threshold)
	require.Len(t, meta.Classes, 1)
	assert.Equal(t, "org.example.Parser", meta.Classes[0].Name)
}

func TestUncoveredClassesToolCustomThreshold(t *testing.T) {
	state := stateWithReport(t)
	tool := &UncoveredClassesTool{}

	result := tool.Execute(context.TODO(), state, `{"threshold": 95}`)
	require.False(t, result.IsError())
	meta, ok := result.StructuredData().Metadata.(tooltypes.UncoveredMetadata)
	require.True(t, ok)
	assert.Len(t, meta.Classes, 2)

	// Every class clears a zero threshold
	result = tool.Execute(context.TODO(), state, `{"threshold": 0}`)
	require.False(t, result.IsError())
	assert.Contains(t, result.GetResult(), "All classes meet")
}

func TestUncoveredClassesToolValidateInput(t *testing.T) {
	tool := &UncoveredClassesTool{}
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	assert.NoError(t, tool.ValidateInput(state, "{}"))
	assert.NoError(t, tool.ValidateInput(state, `{"threshold": 50}`))
	assert.Error(t, tool.ValidateInput(state, `{"threshold": -1}`))
	assert.Error(t, tool.ValidateInput(state, `{"threshold": 101}`))
}

func TestUncoveredClassesToolMissingReport(t *testing.T) {
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	result := (&UncoveredClassesTool{}).Execute(context.TODO(), state, "{}")
	require.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "run maven_report first")
}
