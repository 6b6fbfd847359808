package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/kiranshivaraju/sparkmetrics/internal/api/middleware"
	"github.com/kiranshivaraju/sparkmetrics/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	IngestHandler       http.HandlerFunc
	JobAnalyticsHandler http.HandlerFunc
	DailySummaryHandler http.HandlerFunc
	ProcessHandler      http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Handle("/metrics", promhttp.Handler())

	// Ingestion is the only externally driven write path; it alone is
	// rate limited.
	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}
		r.Post("/api/v1/logs/ingest", orNotImplemented(deps.IngestHandler))
	})

	r.Get("/api/v1/analytics/jobs/{jobID}", orNotImplemented(deps.JobAnalyticsHandler))
	r.Get("/api/v1/analytics/summary", orNotImplemented(deps.DailySummaryHandler))

	r.Post("/api/v1/admin/process", orNotImplemented(deps.ProcessHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
