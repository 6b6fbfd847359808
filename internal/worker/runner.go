package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/sparkmetrics/internal/config"
)

// Runner owns the two entry points into the processor: a periodic sweep over
// all pending jobs and a buffered channel of single-job triggers fired when a
// job-end event is ingested. The sweep is the safety net; a dropped trigger
// is picked up by the next sweep.
type Runner struct {
	processor *Processor
	interval  time.Duration
	batchSize int
	triggers  chan int64
}

// NewRunner creates a Runner from the worker configuration.
func NewRunner(p *Processor, cfg config.WorkerConfig) *Runner {
	return &Runner{
		processor: p,
		interval:  cfg.SweepInterval,
		batchSize: cfg.BatchSize,
		triggers:  make(chan int64, cfg.TriggerBuffer),
	}
}

// TriggerJob enqueues a single-job processing run. It never blocks: when the
// buffer is full the trigger is dropped and the job waits for the sweep.
func (r *Runner) TriggerJob(jobID int64) {
	select {
	case r.triggers <- jobID:
	default:
		slog.Warn("trigger buffer full, deferring job to sweep", "job_id", jobID)
	}
}

// Start runs the sweep loop and the trigger consumer until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	slog.Info("worker started",
		"sweep_interval", r.interval.String(),
		"batch_size", r.batchSize,
		"trigger_buffer", cap(r.triggers))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.sweepLoop(ctx) })
	g.Go(func() error { return r.triggerLoop(ctx) })
	return g.Wait()
}

func (r *Runner) sweepLoop(ctx context.Context) error {
	// First sweep right away so a restart does not wait a full interval
	// to drain the backlog.
	r.runSweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweep loop stopping")
			return ctx.Err()
		case <-ticker.C:
			r.runSweep(ctx)
		}
	}
}

func (r *Runner) runSweep(ctx context.Context) {
	sweepID := uuid.NewString()
	start := time.Now()

	result, err := r.processor.ProcessPendingJobs(ctx, r.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("sweep failed", "sweep_id", sweepID, "error", err)
		return
	}

	if result.Total > 0 {
		slog.Info("sweep complete",
			"sweep_id", sweepID,
			"processed", result.Processed,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"total", result.Total,
			"duration", time.Since(start).String())
	}
}

func (r *Runner) triggerLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("trigger loop stopping")
			return ctx.Err()
		case jobID := <-r.triggers:
			outcome, err := r.processor.ProcessJob(ctx, jobID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Error("triggered processing failed", "job_id", jobID, "error", err)
				continue
			}
			slog.Info("triggered processing done",
				"job_id", jobID, "outcome", outcome.Outcome)
		}
	}
}
