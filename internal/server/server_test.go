package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/metrics"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/storage"
)

func newTestServer(t *testing.T) (*HTTPServer, storage.Storage) {
	t.Helper()
	store := storage.NewSQLiteStorage(&storage.StorageConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "results.db"),
		MaxConnections:   1,
		MaxIdleTime:      time.Minute,
	})
	require.NoError(t, store.Connect())
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })

	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0, EnableMetrics: true, EnableHealth: true}
	return NewHTTPServer(cfg, store, metrics.NewManager(), "test"), store
}

func seed(t *testing.T, store storage.Storage, id string, nodes int, at time.Time) {
	t.Helper()
	mean := 3.5
	run := &models.RunRecord{ID: id, Directory: "/runs/" + id, Nodes: nodes, Clients: 1, Throughput: 0.125,
		Blocks: 2, LatencyMean: &mean, AnalyzedAt: at}
	heights := []*models.HeightRecord{
		{RunID: id, Height: 2, BlockSize: 2000, Latency: 3, PrePrepareLatency: 2},
		{RunID: id, Height: 3, BlockSize: 3000, Latency: 4, PrePrepareLatency: 3},
	}
	require.NoError(t, store.SaveRun(context.Background(), run, heights))
}

func get(t *testing.T, s *HTTPServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestListRuns(t *testing.T) {
	s, store := newTestServer(t)
	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	seed(t, store, "a", 4, base)
	seed(t, store, "b", 7, base.Add(time.Hour))

	rec := get(t, s, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs  []models.RunRecord `json:"runs"`
		Total int64              `json:"total"`
		Limit int                `json:"limit"`
	}
	decode(t, rec, &body)
	assert.Equal(t, int64(2), body.Total)
	assert.Equal(t, defaultPageSize, body.Limit)
	require.Len(t, body.Runs, 2)
	assert.Equal(t, "b", body.Runs[0].ID)

	rec = get(t, s, "/api/v1/runs?nodes=4")
	decode(t, rec, &body)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "a", body.Runs[0].ID)
	assert.Equal(t, int64(1), body.Total)
}

func TestListRunsRejectsBadQuery(t *testing.T) {
	s, _ := newTestServer(t)
	for _, q := range []string{"limit=abc", "offset=-1", "faults=x"} {
		rec := get(t, s, "/api/v1/runs?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestListRunsEmpty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"runs":[]`)
}

func TestGetRun(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "a", 4, time.Now())

	rec := get(t, s, "/api/v1/runs/a")
	require.Equal(t, http.StatusOK, rec.Code)
	var run models.RunRecord
	decode(t, rec, &run)
	assert.Equal(t, "/runs/a", run.Directory)
	require.NotNil(t, run.LatencyMean)
	assert.Equal(t, 3.5, *run.LatencyMean)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/runs/missing").Code)
}

func TestGetHeights(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "a", 4, time.Now())

	rec := get(t, s, "/api/v1/runs/a/heights")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		RunID   string                `json:"run_id"`
		Heights []models.HeightRecord `json:"heights"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "a", body.RunID)
	require.Len(t, body.Heights, 2)
	assert.Equal(t, 2, body.Heights[0].Height)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/v1/runs/missing/heights").Code)
}

func TestStats(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store, "a", 4, time.Now())

	rec := get(t, s, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_runs":1`)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	get(t, s, "/api/v1/health")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "benchlogs_http_requests_total"))
	assert.Contains(t, body, `path="/api/v1/health"`)
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/v1/health")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 32)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
