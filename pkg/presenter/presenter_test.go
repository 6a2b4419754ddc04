package presenter

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewWithOptions(out, errOut, ColorNever), out, errOut
}

func TestErrorOutput(t *testing.T) {
	p, out, errOut := newTestPresenter()

	p.Error(errors.New("boom"), "running tests")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "[ERROR] running tests: boom")

	errOut.Reset()
	p.Error(nil, "ignored")
	assert.Empty(t, errOut.String())
}

func TestSuccessWarningInfo(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Success("tests passed")
	p.Warning("coverage low")
	p.Info("done")

	output := out.String()
	assert.Contains(t, output, "✓ tests passed")
	assert.Contains(t, output, "⚠ coverage low")
	assert.Contains(t, output, "done")
}

func TestSection(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Section("Coverage")
	assert.Contains(t, out.String(), "Coverage\n--------")
}

func TestCoverageStats(t *testing.T) {
	p, out, _ := newTestPresenter()

	p.Coverage(&CoverageStats{LinePct: 86.5, BranchPct: 72.25})
	assert.Contains(t, out.String(), "Line: 86.50%")
	assert.Contains(t, out.String(), "Branch: 72.25%")

	out.Reset()
	p.Coverage(nil)
	assert.Empty(t, out.String())
}

func TestQuietMode(t *testing.T) {
	p, out, errOut := newTestPresenter()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("hidden")
	p.Warning("hidden")
	p.Info("hidden")
	p.Section("hidden")
	p.Separator()
	assert.Empty(t, out.String())

	// Errors are always shown
	p.Error(errors.New("still visible"), "")
	assert.Contains(t, errOut.String(), "still visible")
}
