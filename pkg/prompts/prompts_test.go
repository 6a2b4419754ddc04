package prompts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registered = []string{
	"echo", "safe_calc", "maven_test", "maven_report", "parse_jacoco",
	"uncovered_classes", "git_status", "git_add_all", "git_commit",
	"git_push", "background_runs",
}

const samplePrompt = `---
mode: agent
tools: ['echo', 'maven_test', 'git_status']
description: Run tests and report.
model: GPT-4.1
---
1. Run the tests.
2. Report the outcome.
`

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	prompt, err := Parse([]byte(samplePrompt), "sample", "/tmp/sample.md")
	require.NoError(t, err)

	assert.Equal(t, "sample", prompt.Name)
	assert.Equal(t, "agent", prompt.Metadata.Mode)
	assert.Equal(t, "GPT-4.1", prompt.Metadata.Model)
	assert.Equal(t, "Run tests and report.", prompt.Metadata.Description)
	assert.Equal(t, []string{"echo", "maven_test", "git_status"}, prompt.Metadata.Tools)
	assert.Equal(t, "1. Run the tests.\n2. Report the outcome.\n", prompt.Instructions)
}

func TestParsePreservesToolOrderAndDuplicates(t *testing.T) {
	prompt, err := Parse([]byte(`---
mode: agent
tools: ['git_push', 'echo', 'git_push']
description: d
model: m
---
body
`), "dup", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"git_push", "echo", "git_push"}, prompt.Metadata.Tools)
}

func TestParseMissingFrontmatter(t *testing.T) {
	_, err := Parse([]byte("just a body, no frontmatter"), "bare", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing frontmatter")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Prompt)
		wantErrs []string
	}{
		{
			name:   "valid prompt",
			mutate: func(p *Prompt) {},
		},
		{
			name:     "missing mode",
			mutate:   func(p *Prompt) { p.Metadata.Mode = "" },
			wantErrs: []string{"mode is required"},
		},
		{
			name:     "empty tools",
			mutate:   func(p *Prompt) { p.Metadata.Tools = nil },
			wantErrs: []string{"tools must be a non-empty list"},
		},
		{
			name:     "unknown tool",
			mutate:   func(p *Prompt) { p.Metadata.Tools = []string{"echo", "teleport"} },
			wantErrs: []string{`"teleport" matches no registered tool`},
		},
		{
			name:     "empty tool entry",
			mutate:   func(p *Prompt) { p.Metadata.Tools = []string{"echo", ""} },
			wantErrs: []string{"tools[1] is empty"},
		},
		{
			name: "all problems collected",
			mutate: func(p *Prompt) {
				p.Metadata.Mode = ""
				p.Metadata.Model = ""
				p.Metadata.Tools = []string{"bogus"}
			},
			wantErrs: []string{"mode is required", "model is required", "matches no registered tool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := Parse([]byte(samplePrompt), "sample", "")
			require.NoError(t, err)
			tt.mutate(prompt)

			err = Validate(prompt, registered)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidateGlobPatterns(t *testing.T) {
	prompt, err := Parse([]byte(`---
mode: agent
tools: ['git_*', 'maven_*']
description: d
model: m
---
body
`), "globby", "")
	require.NoError(t, err)
	assert.NoError(t, Validate(prompt, registered))
}

func TestResolveTools(t *testing.T) {
	prompt := &Prompt{Metadata: Metadata{Tools: []string{"git_*", "echo"}}}
	resolved := ResolveTools(prompt, registered)
	assert.Equal(t, []string{"git_status", "git_add_all", "git_commit", "git_push", "echo"}, resolved)
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "sample.md", samplePrompt)

	processor, err := NewProcessor(WithPromptDirs(dir))
	require.NoError(t, err)

	prompt, err := processor.Load(context.TODO(), "sample")
	require.NoError(t, err)
	assert.Equal(t, "agent", prompt.Metadata.Mode)
	assert.Equal(t, filepath.Join(dir, "sample.md"), prompt.Path)

	_, err = processor.Load(context.TODO(), "missing")
	assert.Error(t, err)
}

func TestLoadDirectoryShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "coverage.md", samplePrompt)

	processor, err := NewProcessor(WithPromptDirs(dir))
	require.NoError(t, err)

	prompt, err := processor.Load(context.TODO(), "coverage")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt.Path)
	assert.Equal(t, []string{"echo", "maven_test", "git_status"}, prompt.Metadata.Tools)
}

func TestLoadBuiltin(t *testing.T) {
	processor, err := NewProcessor(WithPromptDirs(t.TempDir()))
	require.NoError(t, err)

	prompt, err := processor.Load(context.TODO(), "coverage")
	require.NoError(t, err)
	assert.Empty(t, prompt.Path)
	assert.Equal(t, "agent", prompt.Metadata.Mode)
	assert.Equal(t, "GPT-4.1", prompt.Metadata.Model)
	assert.Len(t, prompt.Metadata.Tools, 8)
	assert.NoError(t, Validate(prompt, registered))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writePrompt(t, dir, "sample.md", samplePrompt)
	writePrompt(t, dir, "notes.txt", "ignored")

	processor, err := NewProcessor(WithPromptDirs(dir))
	require.NoError(t, err)

	names := processor.List(context.TODO())
	assert.Contains(t, names, "sample")
	assert.Contains(t, names, "coverage")
	assert.NotContains(t, names, "notes")
}
