package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covlet/covlet/pkg/tools"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<report name="demo">
  <package name="org/example">
    <class name="org/example/Parser" sourcefilename="Parser.java">
      <counter type="LINE" missed="8" covered="2"/>
      <counter type="BRANCH" missed="4" covered="0"/>
    </class>
  </package>
</report>`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	state := tools.NewBasicState(tools.WithProjectRoot(t.TempDir()))
	srv, err := NewServer(Config{Host: "127.0.0.1", Port: 8080}, state, nil)
	require.NoError(t, err)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{Host: "0.0.0.0", Port: 8080}).Validate())
	assert.Error(t, (&Config{Host: "", Port: 8080}).Validate())
	assert.Error(t, (&Config{Host: "localhost", Port: 0}).Validate())
	assert.Error(t, (&Config{Host: "localhost", Port: 70000}).Validate())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestEcho(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/echo", `{"text": "hello"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result": "hello"}`, rec.Body.String())

	rec = doRequest(t, srv, http.MethodPost, "/echo", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalc(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/calc", `{"expression": "1 + 2 * 3"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result": 7}`, rec.Body.String())

	rec = doRequest(t, srv, http.MethodPost, "/calc", `{"expression": "1 / 0"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "division by zero")
}

func TestCoverageSummary(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "jacoco.xml")
	require.NoError(t, os.WriteFile(reportPath, []byte(sampleReport), 0o644))

	state := tools.NewBasicState(tools.WithProjectRoot(dir), tools.WithReportPath(reportPath))
	srv, err := NewServer(Config{Host: "127.0.0.1", Port: 8080}, state, nil)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/coverage/summary", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"line_coverage_pct": 20, "branch_coverage_pct": 0}`, rec.Body.String())
}

func TestCoverageSummaryMissingReport(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/coverage/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCoverageUncovered(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "jacoco.xml")
	require.NoError(t, os.WriteFile(reportPath, []byte(sampleReport), 0o644))

	state := tools.NewBasicState(tools.WithProjectRoot(dir), tools.WithReportPath(reportPath))
	srv, err := NewServer(Config{Host: "127.0.0.1", Port: 8080}, state, nil)
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/coverage/uncovered", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "org.example.Parser")

	rec = doRequest(t, srv, http.MethodGet, "/coverage/uncovered?threshold=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "org.example.Parser")

	rec = doRequest(t, srv, http.MethodGet, "/coverage/uncovered?threshold=banana", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/coverage/uncovered?threshold=150", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryDisabledWithoutStore(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDIsPreserved(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}
