package tools

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/covlet/covlet/pkg/jacoco"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

var _ tooltypes.State = &BasicState{}

// BasicState implements the State interface with the project context every
// tool needs: where the project lives, which pom to build, where the
// coverage report lands, and which background runs are in flight.
type BasicState struct {
	mu             sync.RWMutex
	projectRoot    string
	pomPath        string
	reportPath     string
	logDir         string
	backgroundRuns []tooltypes.BackgroundRun
	recorder       tooltypes.RunRecorder
}

// BasicStateOption configures a BasicState
type BasicStateOption func(*BasicState)

// WithProjectRoot sets the project root directory
func WithProjectRoot(root string) BasicStateOption {
	return func(s *BasicState) { s.projectRoot = root }
}

// WithPomPath sets the pom file tools build against
func WithPomPath(pomPath string) BasicStateOption {
	return func(s *BasicState) { s.pomPath = pomPath }
}

// WithReportPath sets the jacoco report location
func WithReportPath(reportPath string) BasicStateOption {
	return func(s *BasicState) { s.reportPath = reportPath }
}

// WithLogDir sets the directory for background run logs
func WithLogDir(logDir string) BasicStateOption {
	return func(s *BasicState) { s.logDir = logDir }
}

// WithRecorder sets the run recorder; nil disables recording
func WithRecorder(recorder tooltypes.RunRecorder) BasicStateOption {
	return func(s *BasicState) { s.recorder = recorder }
}

// NewBasicState creates a state with defaults derived from the working
// directory: pom.xml at the project root and the conventional Maven report
// location next to it.
func NewBasicState(opts ...BasicStateOption) *BasicState {
	s := &BasicState{}
	for _, opt := range opts {
		opt(s)
	}

	if s.projectRoot == "" {
		pwd, err := os.Getwd()
		if err != nil {
			pwd = "."
		}
		s.projectRoot = pwd
	}
	if s.pomPath == "" {
		s.pomPath = filepath.Join(s.projectRoot, "pom.xml")
	}
	if s.reportPath == "" {
		s.reportPath = jacoco.ReportPathFor(s.pomPath)
	}
	if s.logDir == "" {
		s.logDir = filepath.Join(s.projectRoot, ".covlet")
	}

	return s
}

func (s *BasicState) ProjectRoot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectRoot
}

func (s *BasicState) PomPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pomPath
}

func (s *BasicState) ReportPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reportPath
}

func (s *BasicState) LogDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logDir
}

func (s *BasicState) BackgroundRuns() []tooltypes.BackgroundRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]tooltypes.BackgroundRun, len(s.backgroundRuns))
	copy(runs, s.backgroundRuns)
	return runs
}

func (s *BasicState) AddBackgroundRun(run tooltypes.BackgroundRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backgroundRuns = append(s.backgroundRuns, run)
}

func (s *BasicState) Recorder() tooltypes.RunRecorder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recorder
}
