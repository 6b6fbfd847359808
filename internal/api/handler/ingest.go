package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/kiranshivaraju/sparkmetrics/internal/api/response"
	"github.com/kiranshivaraju/sparkmetrics/internal/ingest"
)

const maxIngestBodyBytes = 1 << 20 // 1 MiB

// Ingestor defines the interface the ingest handler depends on.
type Ingestor interface {
	Ingest(ctx context.Context, raw []byte) (*ingest.Result, error)
}

// NewIngestHandler returns an http.HandlerFunc for POST /api/v1/logs/ingest.
// A brand-new event answers 201; a duplicate answers 200 with the existing
// log id, never an error.
func NewIngestHandler(svc Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBodyBytes))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Unable to read request body", nil)
			return
		}

		result, err := svc.Ingest(r.Context(), body)
		if err != nil {
			if errors.Is(err, ingest.ErrMalformedEvent) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					err.Error(), nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		if result.Duplicate {
			response.JSON(w, result)
			return
		}
		response.Created(w, result)
	}
}
