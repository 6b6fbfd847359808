// Package ingest accepts raw Spark event payloads, validates them against the
// closed event-type set, and appends them to the event store with dedup.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/sparkmetrics/internal/metrics"
	"github.com/kiranshivaraju/sparkmetrics/internal/store"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// Trigger requests asynchronous processing of a single job. Implementations
// must not block; a dropped trigger is recovered by the periodic sweep.
type Trigger interface {
	TriggerJob(jobID int64)
}

// Result describes the outcome of one ingestion attempt.
type Result struct {
	ID        int64  `json:"log_id"`
	Duplicate bool   `json:"duplicate"`
	Message   string `json:"message"`
}

// Service ingests events and fires the job-end fast path.
type Service struct {
	store   store.Store
	trigger Trigger
}

// NewService creates an ingestion Service. trigger may be nil, in which case
// job-end events rely solely on the periodic sweep.
func NewService(s store.Store, trigger Trigger) *Service {
	return &Service{store: s, trigger: trigger}
}

// Ingest validates and stores one raw event. A redelivered duplicate returns
// the original record's id with Duplicate=true and is not an error.
func (s *Service) Ingest(ctx context.Context, raw []byte) (*Result, error) {
	event, err := ParseEvent(raw)
	if err != nil {
		metrics.EventsRejectedTotal.Inc()
		return nil, err
	}

	id, isNew, err := s.store.InsertEventLog(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("ingest event: %w", err)
	}

	result := &Result{ID: id, Duplicate: !isNew, Message: "log ingested successfully"}
	if !isNew {
		result.Message = fmt.Sprintf("log entry already exists (ID: %d)", id)
		metrics.EventsDuplicateTotal.Inc()
	} else {
		metrics.EventsIngestedTotal.WithLabelValues(event.EventType).Inc()
	}

	// A job-end event means the job is likely complete; push it to the
	// worker immediately instead of waiting for the next sweep.
	if event.EventType == models.EventJobEnd && s.trigger != nil {
		s.trigger.TriggerJob(event.JobID)
		slog.Debug("job-end trigger fired", "job_id", event.JobID)
	}

	return result, nil
}
