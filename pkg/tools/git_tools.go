package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/covlet/covlet/pkg/git"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var (
	_ tooltypes.Tool = &GitStatusTool{}
	_ tooltypes.Tool = &GitAddAllTool{}
	_ tooltypes.Tool = &GitCommitTool{}
	_ tooltypes.Tool = &GitPushTool{}
)

type GitToolResult struct {
	toolName   string
	subcommand string
	result     git.Result
	err        string
}

func (r *GitToolResult) GetResult() string {
	out := fmt.Sprintf("Command: %s\nExit code: %d\n", r.result.Command, r.result.ExitCode)
	if r.result.StdoutTail != "" {
		out += fmt.Sprintf("Stdout:\n%s\n", r.result.StdoutTail)
	}
	if r.result.StderrTail != "" {
		out += fmt.Sprintf("Stderr:\n%s\n", r.result.StderrTail)
	}
	return out
}

func (r *GitToolResult) GetError() string { return r.err }
func (r *GitToolResult) IsError() bool    { return r.err != "" }

func (r *GitToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.GetResult(), r.err)
}

func (r *GitToolResult) StructuredData() tooltypes.StructuredToolResult {
	return tooltypes.StructuredToolResult{
		ToolName:  r.toolName,
		Success:   !r.IsError() && r.result.ExitCode == 0,
		Error:     r.err,
		Timestamp: time.Now(),
		Metadata: tooltypes.GitMetadata{
			Subcommand: r.subcommand,
			Command:    r.result.Command,
			Dir:        r.result.Dir,
			ExitCode:   r.result.ExitCode,
			StdoutTail: r.result.StdoutTail,
			StderrTail: r.result.StderrTail,
		},
	}
}

type emptyInput struct{}

func runGit(ctx context.Context, state tooltypes.State, toolName, subcommand string,
	fn func(ctx context.Context, r *git.Runner) (git.Result, error)) tooltypes.ToolResult {
	out := &GitToolResult{toolName: toolName, subcommand: subcommand}

	runner := git.NewRunner(state.ProjectRoot())
	if !runner.IsRepository(ctx) {
		out.err = fmt.Sprintf("%s is not a git repository", state.ProjectRoot())
		return out
	}

	result, err := fn(ctx, runner)
	out.result = result
	if err != nil {
		out.err = err.Error()
		return out
	}

	recordRun(ctx, state, tooltypes.ToolRunRecord{
		Tool:     toolName,
		Command:  result.Command,
		ExitCode: result.ExitCode,
	})
	return out
}

// GitStatusTool reports the work tree status of the project repository
type GitStatusTool struct{}

func (t *GitStatusTool) Name() string { return "git_status" }

func (t *GitStatusTool) Description() string {
	return "Show the git branch and porcelain status of the project repository."
}

func (t *GitStatusTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[emptyInput]()
}

func (t *GitStatusTool) TracingKVs(_ string) ([]attribute.KeyValue, error) {
	return nil, nil
}

func (t *GitStatusTool) ValidateInput(_ tooltypes.State, _ string) error {
	return nil
}

func (t *GitStatusTool) Execute(ctx context.Context, state tooltypes.State, _ string) tooltypes.ToolResult {
	return runGit(ctx, state, "git_status", "status", func(ctx context.Context, r *git.Runner) (git.Result, error) {
		return r.Status(ctx)
	})
}

// GitAddAllTool stages every change in the project repository
type GitAddAllTool struct{}

func (t *GitAddAllTool) Name() string { return "git_add_all" }

func (t *GitAddAllTool) Description() string {
	return "Stage all changes in the project repository (git add -A)."
}

func (t *GitAddAllTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[emptyInput]()
}

func (t *GitAddAllTool) TracingKVs(_ string) ([]attribute.KeyValue, error) {
	return nil, nil
}

func (t *GitAddAllTool) ValidateInput(_ tooltypes.State, _ string) error {
	return nil
}

func (t *GitAddAllTool) Execute(ctx context.Context, state tooltypes.State, _ string) tooltypes.ToolResult {
	return runGit(ctx, state, "git_add_all", "add", func(ctx context.Context, r *git.Runner) (git.Result, error) {
		return r.AddAll(ctx)
	})
}

// GitCommitTool creates a commit with the provided message
type GitCommitTool struct{}

type GitCommitInput struct {
	Message string `json:"message" jsonschema:"description=Commit message,required"`
}

func (t *GitCommitTool) Name() string { return "git_commit" }

func (t *GitCommitTool) Description() string {
	return "Create a git commit with the given message."
}

func (t *GitCommitTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[GitCommitInput]()
}

func (t *GitCommitTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &GitCommitInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return nil, err
	}
	return []attribute.KeyValue{
		attribute.String("message", input.Message),
	}, nil
}

func (t *GitCommitTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &GitCommitInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	if input.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

func (t *GitCommitTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &GitCommitInput{}
	if err := json.Unmarshal([]byte(parameters), input); err != nil {
		return &GitToolResult{toolName: "git_commit", subcommand: "commit", err: err.Error()}
	}
	return runGit(ctx, state, "git_commit", "commit", func(ctx context.Context, r *git.Runner) (git.Result, error) {
		return r.Commit(ctx, input.Message)
	})
}

// GitPushTool pushes the current branch, retrying transient failures
type GitPushTool struct{}

func (t *GitPushTool) Name() string { return "git_push" }

func (t *GitPushTool) Description() string {
	return "Push the current branch to its remote, retrying transient network failures."
}

func (t *GitPushTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[emptyInput]()
}

func (t *GitPushTool) TracingKVs(_ string) ([]attribute.KeyValue, error) {
	return nil, nil
}

func (t *GitPushTool) ValidateInput(_ tooltypes.State, _ string) error {
	return nil
}

func (t *GitPushTool) Execute(ctx context.Context, state tooltypes.State, _ string) tooltypes.ToolResult {
	return runGit(ctx, state, "git_push", "push", func(ctx context.Context, r *git.Runner) (git.Result, error) {
		return r.Push(ctx)
	})
}
