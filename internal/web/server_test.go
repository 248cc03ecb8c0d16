package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/agedist/internal/config"
	"github.com/JonMunkholm/agedist/internal/core"
	"github.com/JonMunkholm/agedist/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 10 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

// newSQLiteServer wires a real pipeline over a temporary SQLite database.
func newSQLiteServer(t *testing.T, csvPath string) *Server {
	t.Helper()

	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	svc, err := core.NewService(store, config.ImportConfig{CSVFilePath: csvPath})
	require.NoError(t, err)

	return NewServer(svc, testConfig())
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func serve(s *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestIndex_RendersDistribution(t *testing.T) {
	s := newSQLiteServer(t, writeCSV(t, "name.firstName,name.lastName,age,address.city\nAnn,Lee,30,Paris\n"))

	rec := serve(s, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Age Distribution</h1>")
	assert.Contains(t, body, `<tr><td>20 to 40</td><td class="count">1</td></tr>`)
	assert.Contains(t, body, `<tr><td>&lt; 20</td><td class="count">0</td></tr>`)
}

func TestIndex_MissingFileIs404(t *testing.T) {
	s := newSQLiteServer(t, filepath.Join(t.TempDir(), "missing.csv"))

	rec := serve(s, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>File Not Found</title>")
	assert.Contains(t, rec.Body.String(), "FILE001")
}

func TestIndex_ParseErrorIs422(t *testing.T) {
	s := newSQLiteServer(t, writeCSV(t, "\n\n"))

	rec := serve(s, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Error</title>")
	assert.Contains(t, rec.Body.String(), "VAL001")
}

func TestImport_JSON(t *testing.T) {
	s := newSQLiteServer(t, writeCSV(t, "name.firstName,name.lastName,age\nAnn,Lee,30\nBo,Ng,65\n"))

	rec := serve(s, http.MethodPost, "/api/import", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Rows)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, int64(1), report.Distribution[core.Bucket20To40])
	assert.Equal(t, int64(1), report.Distribution[core.BucketOver60])

	rec = serve(s, http.MethodGet, "/api/distribution", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dist core.AgeDistribution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dist))
	assert.Equal(t, int64(2), dist.Total())
	assert.Len(t, dist, len(core.Buckets))
}

func TestImport_MissingFileJSON(t *testing.T) {
	s := newSQLiteServer(t, filepath.Join(t.TempDir(), "missing.csv"))

	rec := serve(s, http.MethodPost, "/api/import", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE001", resp.Code)
	assert.NotEmpty(t, resp.Action)
}

// stubPipeline returns fixed results.
type stubPipeline struct {
	report  core.Report
	dist    core.AgeDistribution
	err     error
	pingErr error
}

func (p stubPipeline) Run(context.Context) (core.Report, error) { return p.report, p.err }
func (p stubPipeline) Distribution(context.Context) (core.AgeDistribution, error) {
	return p.dist, p.err
}
func (p stubPipeline) Ping(context.Context) error { return p.pingErr }

func TestRespondError_Status(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"load failure", &core.LoadError{Row: 2, Err: errors.New("insert: boom")}, http.StatusInternalServerError, "DB010"},
		{"aggregate failure", &core.AggregateError{Err: errors.New("no such table")}, http.StatusInternalServerError, "DB011"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "ERR000"},
		{"parse failure", &core.ParseError{Line: 1, Msg: "missing required column(s): age"}, http.StatusUnprocessableEntity, "VAL004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(stubPipeline{err: tt.err}, testConfig())

			rec := serve(s, http.MethodGet, "/", map[string]string{"Accept": "application/json"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	s := NewServer(stubPipeline{}, testConfig())
	rec := serve(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	s = NewServer(stubPipeline{pingErr: errors.New("connection refused")}, testConfig())
	rec = serve(s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	s := NewServer(stubPipeline{}, testConfig())
	rec := serve(s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	cfg := testConfig()
	cfg.Security.EnableCSP = false
	rec = serve(NewServer(stubPipeline{}, cfg), http.MethodGet, "/healthz", nil)
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestShutdown_NotStarted(t *testing.T) {
	s := NewServer(stubPipeline{}, testConfig())
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestImport_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.APIKeys = []string{"secret"}
	s := NewServer(stubPipeline{report: core.Report{RunID: "r1"}}, cfg)

	rec := serve(s, http.MethodPost, "/api/import", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(s, http.MethodPost, "/api/import", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(s, http.MethodPost, "/api/import", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, http.MethodGet, "/api/distribution", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "read routes stay open")

	rec = serve(s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "HTML report is not key-gated")
}
