package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/sparkmetrics/internal/cache"
	"github.com/kiranshivaraju/sparkmetrics/internal/store"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// ─── mock store ──────────────────────────────────────────────────────────────

type testStore struct {
	pingErr error
}

func (s *testStore) Ping(_ context.Context) error { return s.pingErr }
func (s *testStore) InsertEventLog(_ context.Context, _ *models.EventLog) (int64, bool, error) {
	return 0, false, nil
}
func (s *testStore) ListJobIDsByStatus(_ context.Context, _ string, _ int) ([]int64, error) {
	return nil, nil
}
func (s *testStore) ListEventLogsByJob(_ context.Context, _ int64) ([]*models.EventLog, error) {
	return nil, nil
}
func (s *testStore) UpdateJobEventStatus(_ context.Context, _ int64, _ string, _ ...store.StatusUpdateOption) error {
	return nil
}
func (s *testStore) CreateJobAnalytics(_ context.Context, _ *models.JobAnalytics) error {
	return nil
}
func (s *testStore) GetJobAnalytics(_ context.Context, _ int64) (*models.JobAnalytics, error) {
	return nil, store.ErrNotFound
}
func (s *testStore) ListJobAnalyticsByEndDate(_ context.Context, _ time.Time) ([]*models.JobAnalytics, error) {
	return nil, nil
}

var _ store.Store = (*testStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type testCache struct {
	pingErr error
}

func (c *testCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *testCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *testCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *testCache) Ping(_ context.Context) error                                     { return c.pingErr }
func (c *testCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

var _ cache.Cache = (*testCache)(nil)

// ─── health handler tests ───────────────────────────────────────────────────

func TestHealthHandler_AllOK(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	services := data["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "ok", services["cache"])
}

func TestHealthHandler_DatabaseDegraded(t *testing.T) {
	h := healthHandler(&testStore{pingErr: errors.New("connection refused")}, &testCache{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "DEGRADED", errObj["code"])
}

func TestHealthHandler_CacheDegraded(t *testing.T) {
	h := healthHandler(&testStore{}, &testCache{pingErr: errors.New("redis down")})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthHandler_BothDegraded(t *testing.T) {
	h := healthHandler(
		&testStore{pingErr: errors.New("db down")},
		&testCache{pingErr: errors.New("redis down")},
	)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ─── run() config validation tests ──────────────────────────────────────────

func TestRun_FailsOnMissingConfig(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL"} {
		t.Setenv(key, "")
	}

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestRun_FailsOnInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "not-a-valid-url")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect database")
}

// ─── shutdown timeout constant test ─────────────────────────────────────────

func TestShutdownTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, shutdownTimeout)
}
