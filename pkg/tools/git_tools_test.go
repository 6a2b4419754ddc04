package tools

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestGitCommitToolValidateInput(t *testing.T) {
	tool := &GitCommitTool{}
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	assert.NoError(t, tool.ValidateInput(state, `{"message": "fix parser"}`))

	err := tool.ValidateInput(state, "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message is required")

	assert.Error(t, tool.ValidateInput(state, `{`))
}

func TestGitToolsOutsideRepository(t *testing.T) {
	requireGit(t)
	state := NewBasicState(WithProjectRoot(t.TempDir()))

	for _, tool := range []tooltypes.Tool{
		&GitStatusTool{},
		&GitAddAllTool{},
		&GitPushTool{},
	} {
		result := tool.Execute(context.TODO(), state, "{}")
		require.True(t, result.IsError(), tool.Name())
		assert.Contains(t, result.GetError(), "not a git repository")
	}
}

func TestGitStatusToolInRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, exec.Command("git", "-C", dir, "init").Run())

	state := NewBasicState(WithProjectRoot(dir))
	result := (&GitStatusTool{}).Execute(context.TODO(), state, "{}")
	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), "Exit code: 0")

	meta, ok := result.StructuredData().Metadata.(tooltypes.GitMetadata)
	require.True(t, ok)
	assert.Equal(t, "status", meta.Subcommand)
	assert.Equal(t, 0, meta.ExitCode)
}
