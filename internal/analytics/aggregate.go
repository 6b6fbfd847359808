// Package analytics derives per-job metrics from event logs and serves them
// through a read-through cache.
package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// ErrNotReady signals that a job's event set lacks the job-start or job-end
// event required for aggregation. It is an expected, recoverable condition.
var ErrNotReady = errors.New("job is not ready for aggregation")

// Ready reports whether a job's event set is sufficient to aggregate: at
// least one job-start and one job-end event. Task-end events are not
// required; a job with zero tasks is still valid. Callers pass a freshly
// loaded event set, so repeated evaluation always reflects the store's
// current view.
func Ready(events []*models.EventLog) bool {
	var hasStart, hasEnd bool
	for _, e := range events {
		switch e.EventType {
		case models.EventJobStart:
			hasStart = true
		case models.EventJobEnd:
			hasEnd = true
		}
	}
	return hasStart && hasEnd
}

// Aggregate computes the analytics record for one job's event set. It is a
// pure function: same events in any order produce the same record, because
// all computation uses event timestamps rather than arrival order.
//
// Start time is the earliest job-start event; end time the latest job-end.
// The job result comes from the job-end payload, defaulting to Unknown when
// absent or unrecognized.
func Aggregate(events []*models.EventLog) (*models.JobAnalytics, error) {
	var (
		start, end *models.EventLog
		taskCount  int
		failed     int
	)

	for _, e := range events {
		switch e.EventType {
		case models.EventJobStart:
			if start == nil || e.EventTime.Before(start.EventTime) {
				start = e
			}
		case models.EventJobEnd:
			if end == nil || e.EventTime.After(end.EventTime) {
				end = e
			}
		case models.EventTaskEnd:
			var p models.TaskEndPayload
			if err := json.Unmarshal(e.Payload, &p); err != nil {
				return nil, fmt.Errorf("decode task-end payload (event %d): %w", e.ID, err)
			}
			taskCount++
			if !p.Successful {
				failed++
			}
		}
	}

	if start == nil || end == nil {
		return nil, ErrNotReady
	}

	duration := end.EventTime.Sub(start.EventTime).Seconds()
	if duration < 0 {
		return nil, fmt.Errorf("job-end (%s) precedes job-start (%s)",
			end.EventTime.Format("2006-01-02T15:04:05Z07:00"),
			start.EventTime.Format("2006-01-02T15:04:05Z07:00"))
	}

	// A job with zero tasks has nothing failing, so its rate is 100.
	successRate := 100.0
	if taskCount > 0 {
		successRate = round2(100 * float64(taskCount-failed) / float64(taskCount))
	}

	var endPayload models.JobEndPayload
	if err := json.Unmarshal(end.Payload, &endPayload); err != nil {
		return nil, fmt.Errorf("decode job-end payload (event %d): %w", end.ID, err)
	}

	return &models.JobAnalytics{
		JobID:           start.JobID,
		User:            start.User,
		StartTime:       start.EventTime,
		EndTime:         end.EventTime,
		DurationSeconds: duration,
		TaskCount:       taskCount,
		FailedTasks:     failed,
		SuccessRate:     successRate,
		JobResult:       models.NormalizeJobResult(endPayload.JobResult),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
