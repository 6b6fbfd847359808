package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/sparkmetrics/internal/api/response"
	"github.com/kiranshivaraju/sparkmetrics/internal/worker"
)

// Sweeper defines the interface the admin process handler depends on.
type Sweeper interface {
	ProcessPendingJobs(ctx context.Context, batchSize int) (*worker.BatchResult, error)
}

// NewProcessHandler returns an http.HandlerFunc for POST /api/v1/admin/process.
// It runs one sweep synchronously and reports the batch counts, for operators
// who do not want to wait for the next scheduled sweep.
func NewProcessHandler(svc Sweeper, batchSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ProcessPendingJobs(r.Context(), batchSize)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Processing run failed", nil)
			return
		}
		response.JSON(w, result)
	}
}
