package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/sparkmetrics/internal/api"
	mw "github.com/kiranshivaraju/sparkmetrics/internal/api/middleware"
)

// --- stub cache for the rate limiter ---

type stubCache struct{}

func (c *stubCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *stubCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *stubCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *stubCache) Ping(_ context.Context) error                                     { return nil }
func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

func newTestRouter(deps api.Dependencies) http.Handler {
	if deps.RateLimit == nil {
		deps.RateLimit = mw.NewRateLimit(&stubCache{}, 100)
	}
	return api.NewRouter(deps)
}

func TestRouter_RoutesAreRegistered(t *testing.T) {
	called := map[string]bool{}
	mark := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			called[name] = true
			w.WriteHeader(http.StatusOK)
		}
	}

	router := newTestRouter(api.Dependencies{
		HealthHandler:       mark("health"),
		IngestHandler:       mark("ingest"),
		JobAnalyticsHandler: mark("job"),
		DailySummaryHandler: mark("summary"),
		ProcessHandler:      mark("process"),
	})

	requests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/health"},
		{http.MethodPost, "/api/v1/logs/ingest"},
		{http.MethodGet, "/api/v1/analytics/jobs/42"},
		{http.MethodGet, "/api/v1/analytics/summary"},
		{http.MethodPost, "/api/v1/admin/process"},
	}
	for _, req := range requests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(req.method, req.path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", req.method, req.path)
	}

	for _, name := range []string{"health", "ingest", "job", "summary", "process"} {
		assert.True(t, called[name], "handler %s not reached", name)
	}
}

func TestRouter_MissingHandlerAnswers501(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_IMPLEMENTED", body["error"].(map[string]any)["code"])
}

func TestRouter_SetsRequestID(t *testing.T) {
	router := newTestRouter(api.Dependencies{HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestRouter_UnknownRouteAnswers404(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
