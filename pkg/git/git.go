// Package git shells out to the git CLI for the handful of operations the
// tool suite exposes: status, staging, commit, and push.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/covlet/covlet/pkg/logger"
	"github.com/covlet/covlet/pkg/maven"
)

// Result mirrors the maven result shape so all command-running tools report
// the same fields.
type Result struct {
	Command    string `json:"command"`
	Dir        string `json:"cwd"`
	ExitCode   int    `json:"returncode"`
	StdoutTail string `json:"stdout_tail"`
	StderrTail string `json:"stderr_tail"`
}

// pushRetryAttempts bounds transient-failure retries on push
const pushRetryAttempts = 3

// Runner executes git commands in a fixed working directory
type Runner struct {
	dir     string
	gitPath string
}

// NewRunner creates a git runner rooted at dir
func NewRunner(dir string) *Runner {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		gitPath = "git"
	}
	return &Runner{dir: dir, gitPath: gitPath}
}

func (r *Runner) run(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, r.gitPath, args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := r.gitPath + " " + strings.Join(args, " ")
	logger.G(ctx).WithField("command", commandLine).Debug("running git")

	err := cmd.Run()
	result := Result{
		Command:    commandLine,
		Dir:        r.dir,
		StdoutTail: maven.Tail(stdout.String()),
		StderrTail: maven.Tail(stderr.String()),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, errors.Wrap(err, "failed to run git")
	}

	return result, nil
}

// IsRepository reports whether the runner's directory is inside a git work tree
func (r *Runner) IsRepository(ctx context.Context) bool {
	result, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && result.ExitCode == 0
}

// Status returns branch information and porcelain status output
func (r *Runner) Status(ctx context.Context) (Result, error) {
	return r.run(ctx, "status", "--porcelain=v1", "--branch")
}

// AddAll stages every change in the work tree
func (r *Runner) AddAll(ctx context.Context) (Result, error) {
	return r.run(ctx, "add", "-A")
}

// Commit creates a commit with the given message
func (r *Runner) Commit(ctx context.Context, message string) (Result, error) {
	if strings.TrimSpace(message) == "" {
		return Result{}, errors.New("commit message cannot be empty")
	}
	return r.run(ctx, "commit", "-m", message)
}

// Push pushes the current branch, retrying failures that look transient
// (network hiccups, remote hangups). Rejections such as non-fast-forward
// are returned immediately.
func (r *Runner) Push(ctx context.Context) (Result, error) {
	var result Result
	var runErr error

	err := retry.Do(
		func() error {
			result, runErr = r.run(ctx, "push")
			if runErr != nil {
				return retry.Unrecoverable(runErr)
			}
			if result.ExitCode != 0 && isTransientPushFailure(result.StderrTail) {
				return errors.Errorf("transient push failure: %s", result.StderrTail)
			}
			return nil
		},
		retry.Attempts(pushRetryAttempts),
		retry.Delay(2*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithField("attempt", n+1).WithError(err).Warn("retrying git push")
		}),
	)
	if err != nil {
		if runErr != nil {
			// git never ran (or was cancelled mid-run), so there is no
			// exit code to report
			return result, runErr
		}
		if result.Command == "" {
			// retry.Do gave up before the first attempt (context done)
			return result, err
		}
		// Exhausted retries: the last result still describes the failure
		return result, nil
	}

	return result, nil
}

func isTransientPushFailure(stderr string) bool {
	lowered := strings.ToLower(stderr)
	for _, marker := range []string{
		"could not read from remote",
		"connection reset",
		"connection timed out",
		"operation timed out",
		"early eof",
		"the remote end hung up",
	} {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
