package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/sparkmetrics/internal/analytics"
	"github.com/kiranshivaraju/sparkmetrics/internal/api/response"
	"github.com/kiranshivaraju/sparkmetrics/internal/store"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// AnalyticsReader defines the interface the analytics handlers depend on.
type AnalyticsReader interface {
	GetJobAnalytics(ctx context.Context, jobID int64) (*models.JobAnalytics, error)
	GetDailySummary(ctx context.Context, date string) (*models.DailySummary, error)
}

// NewJobAnalyticsHandler returns an http.HandlerFunc for
// GET /api/v1/analytics/jobs/{jobID}.
func NewJobAnalyticsHandler(svc AnalyticsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := strconv.ParseInt(chi.URLParam(r, "jobID"), 10, 64)
		if err != nil || jobID <= 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"jobID must be a positive integer", nil)
			return
		}

		result, err := svc.GetJobAnalytics(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"No analytics found for this job; it may not be processed yet", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, result)
	}
}

// NewDailySummaryHandler returns an http.HandlerFunc for
// GET /api/v1/analytics/summary. The date query parameter defaults to the
// current UTC date.
func NewDailySummaryHandler(svc AnalyticsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}

		result, err := svc.GetDailySummary(r.Context(), date)
		if err != nil {
			if errors.Is(err, analytics.ErrInvalidDate) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					err.Error(), nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, result)
	}
}
