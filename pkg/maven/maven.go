// Package maven runs Maven goals against a project and captures bounded
// output tails, either in the foreground or as tracked background runs.
package maven

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/covlet/covlet/pkg/logger"
)

// TailLimit is the maximum number of bytes of stdout/stderr kept per run.
const TailLimit = 2000

// Result captures the outcome of a finished Maven invocation.
// JSON field names follow the wire shape consumers already expect.
type Result struct {
	Command    string `json:"command"`
	Dir        string `json:"cwd"`
	ExitCode   int    `json:"returncode"`
	StdoutTail string `json:"stdout_tail"`
	StderrTail string `json:"stderr_tail"`
	DurationMs int64  `json:"duration_ms"`
}

// Run describes a Maven invocation started in the background
type Run struct {
	ID        string    `json:"id"`
	PID       int       `json:"pid"`
	Command   string    `json:"command"`
	LogPath   string    `json:"log_path"`
	StartTime time.Time `json:"start_time"`
}

// RunStatus is a point-in-time view of a background run
type RunStatus struct {
	Alive      bool    `json:"alive"`
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

// Runner invokes mvn against a fixed pom
type Runner struct {
	dir     string
	pomPath string
	mvnPath string
}

// NewRunner creates a Runner for the project rooted at dir with the given pom.
// The mvn binary is resolved from PATH, falling back to the bare name so the
// failure surfaces at run time with the usual exec error.
func NewRunner(dir, pomPath string) *Runner {
	mvnPath, err := exec.LookPath("mvn")
	if err != nil {
		mvnPath = "mvn"
	}
	return &Runner{
		dir:     dir,
		pomPath: pomPath,
		mvnPath: mvnPath,
	}
}

// PomPath returns the pom the runner is bound to
func (r *Runner) PomPath() string {
	return r.pomPath
}

func (r *Runner) args(goals []string, testFilter string) []string {
	args := []string{"-f", r.pomPath, "-B"}
	if testFilter != "" {
		args = append(args, fmt.Sprintf("-Dtest=%s", testFilter))
	}
	return append(args, goals...)
}

// Run executes the given goals and waits for completion. A non-zero Maven
// exit code is not an error: it is reported through Result.ExitCode so that
// callers can relay failing builds verbatim.
func (r *Runner) Run(ctx context.Context, goals []string, testFilter string) (Result, error) {
	args := r.args(goals, testFilter)
	cmd := exec.CommandContext(ctx, r.mvnPath, args...)
	cmd.Dir = r.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := r.mvnPath + " " + strings.Join(args, " ")
	logger.G(ctx).WithField("command", commandLine).Debug("running maven")

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Command:    commandLine,
		Dir:        r.dir,
		StdoutTail: Tail(stdout.String()),
		StderrTail: Tail(stderr.String()),
		DurationMs: time.Since(start).Milliseconds(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, errors.Errorf("maven run timed out after %dms", result.DurationMs)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, errors.Wrap(err, "failed to run maven")
	}

	return result, nil
}

// Start launches the given goals in the background, teeing output to a log
// file under logDir. The returned Run identifies the process; callers own
// tracking it.
func (r *Runner) Start(ctx context.Context, goals []string, testFilter, logDir string) (Run, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return Run{}, errors.Wrap(err, "failed to create log directory")
	}

	id := uuid.New().String()
	logPath := filepath.Join(logDir, fmt.Sprintf("maven-%s.log", id))
	logFile, err := os.Create(logPath)
	if err != nil {
		return Run{}, errors.Wrap(err, "failed to create log file")
	}

	args := r.args(goals, testFilter)
	cmd := exec.Command(r.mvnPath, args...)
	cmd.Dir = r.dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return Run{}, errors.Wrap(err, "failed to start maven")
	}

	run := Run{
		ID:        id,
		PID:       cmd.Process.Pid,
		Command:   r.mvnPath + " " + strings.Join(args, " "),
		LogPath:   logPath,
		StartTime: time.Now(),
	}

	// Reap the process and close the log once it exits
	go func() {
		defer logFile.Close()
		if err := cmd.Wait(); err != nil {
			logger.G(ctx).WithField("run_id", id).WithError(err).Debug("background maven run finished with error")
		}
	}()

	logger.G(ctx).WithField("run_id", id).WithField("pid", run.PID).Info("started background maven run")
	return run, nil
}

// Status inspects a background run's process
func Status(run Run) RunStatus {
	alive, _ := process.PidExists(int32(run.PID))
	status := RunStatus{Alive: alive}
	if !alive {
		return status
	}

	proc, err := process.NewProcess(int32(run.PID))
	if err != nil {
		return status
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		status.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		status.MemoryRSS = mem.RSS
	}
	return status
}

// Tail returns the last TailLimit bytes of s, dropping a leading partial
// rune so the cut never splits a multi-byte character.
func Tail(s string) string {
	if len(s) <= TailLimit {
		return s
	}
	cut := len(s) - TailLimit
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}
