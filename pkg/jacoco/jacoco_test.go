package jacoco

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<!DOCTYPE report PUBLIC "-//JACOCO//DTD Report 1.1//EN" "report.dtd">
<report name="demo">
  <package name="org/example">
    <class name="org/example/Calculator" sourcefilename="Calculator.java">
      <method name="add" desc="(II)I" line="5">
        <counter type="LINE" missed="0" covered="2"/>
        <counter type="BRANCH" missed="0" covered="0"/>
      </method>
      <counter type="LINE" missed="1" covered="9"/>
      <counter type="BRANCH" missed="1" covered="3"/>
    </class>
    <class name="org/example/Parser" sourcefilename="Parser.java">
      <counter type="LINE" missed="8" covered="2"/>
      <counter type="BRANCH" missed="4" covered="0"/>
    </class>
    <counter type="LINE" missed="9" covered="11"/>
    <counter type="BRANCH" missed="5" covered="3"/>
  </package>
  <counter type="LINE" missed="9" covered="11"/>
  <counter type="BRANCH" missed="5" covered="3"/>
</report>`

func TestParse(t *testing.T) {
	report, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)

	assert.Equal(t, "demo", report.Name)
	require.Len(t, report.Packages, 1)
	require.Len(t, report.Packages[0].Classes, 2)
	assert.Equal(t, "org/example/Calculator", report.Packages[0].Classes[0].Name)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not xml at all <"))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	report, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)

	summary := report.Summary()
	// All LINE counters: (2+9+2+11+11) covered, (0+1+8+9+9) missed
	assert.InDelta(t, 56.45, summary.LinePct, 0.01)
	// All BRANCH counters: (0+3+0+3+3) covered, (0+1+4+5+5) missed
	assert.InDelta(t, 37.5, summary.BranchPct, 0.01)
}

func TestSummaryEmptyReport(t *testing.T) {
	report, err := Parse(strings.NewReader(`<report name="empty"></report>`))
	require.NoError(t, err)

	summary := report.Summary()
	assert.Equal(t, 0.0, summary.LinePct)
	assert.Equal(t, 0.0, summary.BranchPct)
}

func TestUncoveredClasses(t *testing.T) {
	report, err := Parse(strings.NewReader(sampleReport))
	require.NoError(t, err)

	low := report.UncoveredClasses(80.0)
	require.Len(t, low, 1)
	assert.Equal(t, "org.example.Parser", low[0].Name)
	assert.Equal(t, 20.0, low[0].LinePct)

	// Calculator is at 90% and should pass a lower threshold
	all := report.UncoveredClasses(95.0)
	require.Len(t, all, 2)
	assert.Equal(t, "org.example.Calculator", all[0].Name)
	assert.Equal(t, 90.0, all[0].LinePct)
}

func TestUncoveredClassesNoLineCounter(t *testing.T) {
	report, err := Parse(strings.NewReader(`<report name="x">
  <package name="p">
    <class name="p/NoCounters" sourcefilename="NoCounters.java"/>
  </package>
</report>`))
	require.NoError(t, err)

	low := report.UncoveredClasses(50.0)
	require.Len(t, low, 1)
	assert.Equal(t, 0.0, low[0].LinePct)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jacoco.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o644))

	report, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", report.Name)

	_, err = ParseFile(filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jacoco.xml")
	assert.False(t, Exists(path))

	require.NoError(t, os.WriteFile(path, []byte(sampleReport), 0o644))
	assert.True(t, Exists(path))

	assert.False(t, Exists(dir))
}

func TestReportPathFor(t *testing.T) {
	got := ReportPathFor(filepath.Join("codebase", "pom.xml"))
	assert.Equal(t, filepath.Join("codebase", "target", "site", "jacoco", "jacoco.xml"), got)
}

func TestFindReport(t *testing.T) {
	root := t.TempDir()
	reportDir := filepath.Join(root, "codebase", "target", "site", "jacoco")
	require.NoError(t, os.MkdirAll(reportDir, 0o755))
	reportPath := filepath.Join(reportDir, "jacoco.xml")
	require.NoError(t, os.WriteFile(reportPath, []byte(sampleReport), 0o644))

	found, err := FindReport(root)
	require.NoError(t, err)
	assert.Equal(t, reportPath, found)

	_, err = FindReport(t.TempDir())
	assert.Error(t, err)
}
