// Package httpapi serves the covlet helper HTTP API: health, echo, calc,
// maven test, coverage, and run history endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/covlet/covlet/pkg/history"
	"github.com/covlet/covlet/pkg/jacoco"
	"github.com/covlet/covlet/pkg/logger"
	"github.com/covlet/covlet/pkg/maven"
	"github.com/covlet/covlet/pkg/tools"
	tooltypes "github.com/covlet/covlet/pkg/types/tools"
)

// Config holds the HTTP server configuration
type Config struct {
	Host string
	Port int
}

// Validate checks the server configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Server is the covlet HTTP API server
type Server struct {
	config  Config
	state   tooltypes.State
	store   *history.Store
	httpSrv *http.Server
}

// NewServer creates an HTTP API server. The history store may be nil, in
// which case /history returns 404.
func NewServer(config Config, state tooltypes.State, store *history.Store) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server config")
	}

	s := &Server{
		config: config,
		state:  state,
		store:  store,
	}

	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/echo", s.handleEcho).Methods(http.MethodPost)
	router.HandleFunc("/calc", s.handleCalc).Methods(http.MethodPost)
	router.HandleFunc("/maven/test", s.handleMavenTest).Methods(http.MethodPost)
	router.HandleFunc("/coverage/summary", s.handleCoverageSummary).Methods(http.MethodGet)
	router.HandleFunc("/coverage/uncovered", s.handleCoverageUncovered).Methods(http.MethodGet)
	if store != nil {
		router.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	}

	s.httpSrv = &http.Server{
		Addr:         config.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // maven runs are slow
	}

	return s, nil
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	logger.G(ctx).WithField("addr", s.config.Addr()).Info("http api listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Wrap(s.httpSrv.Shutdown(shutdownCtx), "failed to shut down http server")
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server failed")
	}
}

// Handler returns the configured handler, for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := r.Context()
		log := logger.G(ctx).WithField("request_id", requestID).
			WithField("method", r.Method).
			WithField("path", r.URL.Path)
		log.Info("request")

		next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, log)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": payload.Text})
}

func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Expression string `json:"expression"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	value, err := tools.Evaluate(payload.Expression)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"result": value})
}

func (s *Server) handleMavenTest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TestFilter string `json:"test_filter"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
			return
		}
	}

	runner := maven.NewRunner(s.state.ProjectRoot(), s.state.PomPath())
	result, err := runner.Run(r.Context(), []string{"test"}, payload.TestFilter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCoverageSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := s.loadReport(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Summary())
}

func (s *Server) handleCoverageUncovered(w http.ResponseWriter, r *http.Request) {
	threshold := tools.DefaultCoverageThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := parseThreshold(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		threshold = parsed
	}

	report, ok := s.loadReport(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"classes":   report.UncoveredClasses(threshold),
	})
}

func (s *Server) loadReport(w http.ResponseWriter) (*jacoco.Report, bool) {
	reportPath := s.state.ReportPath()
	if !jacoco.Exists(reportPath) {
		writeError(w, http.StatusNotFound,
			errors.Errorf("jacoco report not found at %s, run the tests with jacoco:report first", reportPath))
		return nil, false
	}

	report, err := jacoco.ParseFile(reportPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return report, true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parseLimit(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		limit = parsed
	}

	records, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": records})
}

func parseThreshold(raw string) (float64, error) {
	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Errorf("invalid threshold %q", raw)
	}
	if threshold < 0 || threshold > 100 {
		return 0, errors.Errorf("threshold must be between 0 and 100, got %g", threshold)
	}
	return threshold, nil
}

func parseLimit(raw string) (int, error) {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}
