// Package worker drives jobs through the processing state machine:
// PENDING -> PROCESSING -> {PROCESSED, FAILED}, with a rollback to PENDING
// when a job's event set is not yet complete.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiranshivaraju/sparkmetrics/internal/analytics"
	"github.com/kiranshivaraju/sparkmetrics/internal/metrics"
	"github.com/kiranshivaraju/sparkmetrics/internal/store"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// Analytics is the slice of the analytics service the processor needs.
type Analytics interface {
	ProcessJob(ctx context.Context, jobID int64) error
}

// JobOutcome is the result of one per-job orchestration run. Outcome is one
// of the metrics.Outcome* label values.
type JobOutcome struct {
	JobID   int64  `json:"job_id"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

// BatchResult aggregates the outcomes of one sweep.
type BatchResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Total     int `json:"total"`
}

// Processor runs the per-job state machine. Both the periodic sweep and the
// single-job trigger go through ProcessJob, so racing entry points converge
// on identical logic; idempotent aggregation makes the race harmless.
type Processor struct {
	store     store.Store
	analytics Analytics
}

// NewProcessor creates a Processor.
func NewProcessor(s store.Store, a Analytics) *Processor {
	return &Processor{store: s, analytics: a}
}

// ProcessPendingJobs fetches up to batchSize jobs with pending events,
// oldest first, and drives each through the state machine sequentially.
// A store failure aborts the sweep and returns the counts so far; the
// affected job is retried by a later sweep.
func (p *Processor) ProcessPendingJobs(ctx context.Context, batchSize int) (*BatchResult, error) {
	timer := prometheus.NewTimer(metrics.SweepDuration)
	defer timer.ObserveDuration()

	jobIDs, err := p.store.ListJobIDsByStatus(ctx, models.StatusPending, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}

	result := &BatchResult{Total: len(jobIDs)}
	if len(jobIDs) == 0 {
		return result, nil
	}

	for _, jobID := range jobIDs {
		outcome, err := p.ProcessJob(ctx, jobID)
		if err != nil {
			return result, fmt.Errorf("process job %d: %w", jobID, err)
		}
		switch outcome.Outcome {
		case metrics.OutcomeProcessed:
			result.Processed++
		case metrics.OutcomeSkipped:
			result.Skipped++
		case metrics.OutcomeFailed:
			result.Failed++
		}
	}

	return result, nil
}

// ProcessJob runs one orchestration run for a job. Returned errors are store
// failures only; the job's status is then whatever the last successful
// transition left (a later sweep self-corrects PENDING, see package doc).
// Aggregation failures do not return an error: they land the job in FAILED
// with the error text recorded, and FAILED jobs are not retried.
func (p *Processor) ProcessJob(ctx context.Context, jobID int64) (*JobOutcome, error) {
	timer := prometheus.NewTimer(metrics.JobProcessingDuration)
	defer timer.ObserveDuration()

	if err := p.store.UpdateJobEventStatus(ctx, jobID, models.StatusProcessing); err != nil {
		return nil, err
	}

	events, err := p.store.ListEventLogsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !analytics.Ready(events) {
		// Deliberate rollback, not a failure: put the job back for a
		// future sweep once the missing events arrive.
		if err := p.store.UpdateJobEventStatus(ctx, jobID, models.StatusPending); err != nil {
			return nil, err
		}
		metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		slog.Info("job not ready for processing", "job_id", jobID, "events", len(events))
		return &JobOutcome{
			JobID:   jobID,
			Outcome: metrics.OutcomeSkipped,
			Message: "job is not ready for processing (missing required events)",
		}, nil
	}

	if err := p.analytics.ProcessJob(ctx, jobID); err != nil {
		if errors.Is(err, analytics.ErrNotReady) {
			// Readiness was re-checked above; reaching this means events
			// changed under us. Roll back and let the sweep retry.
			if serr := p.store.UpdateJobEventStatus(ctx, jobID, models.StatusPending); serr != nil {
				return nil, serr
			}
			metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
			return &JobOutcome{JobID: jobID, Outcome: metrics.OutcomeSkipped, Message: err.Error()}, nil
		}

		if serr := p.store.UpdateJobEventStatus(ctx, jobID, models.StatusFailed,
			store.WithErrorMessage(err.Error())); serr != nil {
			return nil, serr
		}
		metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		slog.Error("job processing failed", "job_id", jobID, "error", err)
		return &JobOutcome{JobID: jobID, Outcome: metrics.OutcomeFailed, Message: err.Error()}, nil
	}

	if err := p.store.UpdateJobEventStatus(ctx, jobID, models.StatusProcessed); err != nil {
		return nil, err
	}
	metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeProcessed).Inc()
	slog.Info("job processed", "job_id", jobID)
	return &JobOutcome{JobID: jobID, Outcome: metrics.OutcomeProcessed, Message: "job processed successfully"}, nil
}
