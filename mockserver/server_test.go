package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "demo-token-123"

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(opts, zerolog.Nop())
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic ZGVtbzo=", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"demo token", "Bearer demo-token-123", http.StatusOK},
		{"test token", "Bearer test-token-456", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v2/authenticate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"success":false,"errors":["Unauthorized"]}`, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"success":true,"message":"Authentication successful"}`, rec.Body.String())
			}
		})
	}
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	rec, health := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 0, health["projects_count"])

	rec, root := doJSON(t, s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Version, root["version"])
	assert.Contains(t, root["endpoints"], "/api/v2/projects/create")
	assert.Contains(t, root["endpoints"], "/health")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics := httptest.NewRecorder()
	s.Handler().ServeHTTP(metrics, req)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "cloudbridge_mock_requests_total")
}

func TestProjectAndFileEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	rec, created := doJSON(t, s, http.MethodPost, "/api/v2/projects/create", testToken, map[string]any{"name": "T", "language": "Py"})
	require.Equal(t, http.StatusOK, rec.Code)
	projects := created["projects"].([]any)
	require.Len(t, projects, 1)
	assert.EqualValues(t, 1, projects[0].(map[string]any)["projectId"])

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v2/files/create", testToken, map[string]any{"projectId": 1, "name": "main.py", "content": "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	rec, resp = doJSON(t, s, http.MethodPost, "/api/v2/files/create", testToken, map[string]any{"projectId": 7, "name": "main.py"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, []any{"Project not found"}, resp["errors"])

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/files/update", testToken, map[string]any{"projectId": 1, "oldFileName": "main.py", "newFileName": "algo.py"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/files/update", testToken, map[string]any{"projectId": 1, "fileName": "algo.py", "newFileContents": ""})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/files/update", testToken, map[string]any{"projectId": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = doJSON(t, s, http.MethodPost, "/api/v2/files/read", testToken, map[string]any{"projectId": 1, "fileName": "algo.py"})
	require.Equal(t, http.StatusOK, rec.Code)
	files := resp["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "", files[0].(map[string]any)["content"])

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/projects/read", testToken, map[string]any{"projectId": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = doJSON(t, s, http.MethodPost, "/api/v2/projects/read", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["projects"], 1)

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/projects/read", testToken, map[string]any{"projectId": "one"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/projects/delete", testToken, map[string]any{"projectId": 1})
	assert.Equal(t, http.StatusOK, rec.Code)
	projectCount, _ := s.Store().Counts()
	assert.Zero(t, projectCount)
}

func TestBacktestReportAndLiveEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultOptions())
	p := s.Store().CreateProject("T", "Py")

	rec, created := doJSON(t, s, http.MethodPost, "/api/v2/backtests/create", testToken, map[string]any{"projectId": p.ProjectID, "compileId": "c", "backtestName": "Run"})
	require.Equal(t, http.StatusOK, rec.Code)
	backtestID := created["backtestId"].(string)

	rec, report := doJSON(t, s, http.MethodPost, "/api/v2/backtests/read/report", testToken, map[string]any{"projectId": p.ProjectID, "backtestId": backtestID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, report["report"], "Total Trades: 25")

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/backtests/read/report", testToken, map[string]any{"projectId": p.ProjectID, "backtestId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, live := doJSON(t, s, http.MethodPost, "/api/v2/live/create", testToken, map[string]any{"projectId": p.ProjectID, "compileId": "c", "serverType": "L-MICRO"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Running", live["status"])
	deployID := live["deployId"].(string)

	rec, logs := doJSON(t, s, http.MethodPost, "/api/v2/live/read/log", testToken, map[string]any{"projectId": p.ProjectID, "algorithmId": deployID, "start": 1, "end": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Connected to data feed", "Processing market data..."}, logs["LiveLogs"])

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/live/read/log", testToken, map[string]any{"projectId": p.ProjectID, "algorithmId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/live/update/liquidate", testToken, map[string]any{"projectId": p.ProjectID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, list := doJSON(t, s, http.MethodPost, "/api/v2/live/read", testToken, map[string]any{"projectId": p.ProjectID})
	require.Equal(t, http.StatusOK, rec.Code)
	algorithms := list["Algorithms"].([]any)
	require.Len(t, algorithms, 1)
	assert.Equal(t, "Liquidated", algorithms[0].(map[string]any)["status"])
}

func TestDataEndpoints(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	rec, resp := doJSON(t, s, http.MethodPost, "/api/v2/data/read", testToken, map[string]any{"format": "link", "filePath": "equity/usa/daily/spy.csv"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://example.com/data/equity/usa/daily/spy.csv", resp["link"])

	rec, _ = doJSON(t, s, http.MethodPost, "/api/v2/data/read", testToken, map[string]any{"format": "link"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/data/equity/usa/daily/spy.csv", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	first := httptest.NewRecorder()
	s.Handler().ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)
	assert.True(t, strings.HasPrefix(first.Body.String(), "time,open,high,low,close,volume\n"))
	assert.Len(t, strings.Split(strings.TrimSpace(first.Body.String()), "\n"), 11)

	second := httptest.NewRecorder()
	s.Handler().ServeHTTP(second, req)
	assert.Equal(t, first.Body.String(), second.Body.String())

	rec, _ = doJSON(t, s, http.MethodGet, "/data/equity/spy.zip", testToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, s, http.MethodGet, "/data/equity/spy.csv", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 0.001, Burst: 2})

	for i := 0; i < 2; i++ {
		rec, _ := doJSON(t, s, http.MethodGet, "/api/v2/authenticate", testToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := doJSON(t, s, http.MethodGet, "/api/v2/authenticate", testToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, false, resp["success"])

	rec, _ = doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogWindow(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}

	tests := []struct {
		name       string
		start, end int
		want       []string
	}{
		{"all", 0, 0, lines},
		{"middle", 1, 3, []string{"b", "c"}},
		{"end past length", 2, 10, []string{"c", "d"}},
		{"start past end", 3, 2, []string{}},
		{"negative start", -4, 1, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logWindow(lines, tt.start, tt.end))
		})
	}
}
