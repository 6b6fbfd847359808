package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// ErrMalformedEvent marks input rejected at the ingestion boundary; it never
// reaches the event store.
var ErrMalformedEvent = errors.New("malformed event")

// rawEvent is the superset of fields across all event kinds. Pointers
// distinguish absent fields from zero values during validation.
type rawEvent struct {
	Event     string     `json:"event"`
	JobID     *int64     `json:"job_id"`
	User      string     `json:"user"`
	Timestamp *time.Time `json:"timestamp"`

	// SparkListenerTaskEnd
	TaskID     *string `json:"task_id"`
	DurationMS *int64  `json:"duration_ms"`
	Successful *bool   `json:"successful"`

	// SparkListenerJobEnd
	CompletionTime *time.Time `json:"completion_time"`
	JobResult      *string    `json:"job_result"`
}

// ParseEvent decodes and validates a raw event payload. The closed set of
// event kinds each has its own required fields; anything else fails with
// ErrMalformedEvent before touching storage.
func ParseEvent(raw []byte) (*models.EventLog, error) {
	var ev rawEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedEvent, err)
	}

	if ev.Event == "" {
		return nil, fmt.Errorf("%w: event is required", ErrMalformedEvent)
	}
	if !models.ValidEventType(ev.Event) {
		return nil, fmt.Errorf("%w: unsupported event type %q", ErrMalformedEvent, ev.Event)
	}
	if ev.JobID == nil || *ev.JobID <= 0 {
		return nil, fmt.Errorf("%w: job_id must be a positive integer", ErrMalformedEvent)
	}
	if ev.User == "" {
		return nil, fmt.Errorf("%w: user is required", ErrMalformedEvent)
	}
	if ev.Timestamp == nil {
		return nil, fmt.Errorf("%w: timestamp is required", ErrMalformedEvent)
	}

	switch ev.Event {
	case models.EventTaskEnd:
		if ev.TaskID == nil || *ev.TaskID == "" {
			return nil, fmt.Errorf("%w: task_id is required for %s", ErrMalformedEvent, models.EventTaskEnd)
		}
		if ev.DurationMS == nil || *ev.DurationMS < 0 {
			return nil, fmt.Errorf("%w: duration_ms must be a non-negative integer", ErrMalformedEvent)
		}
		if ev.Successful == nil {
			return nil, fmt.Errorf("%w: successful is required for %s", ErrMalformedEvent, models.EventTaskEnd)
		}
	case models.EventJobEnd:
		// completion_time and job_result are optional; an unrecognized
		// job_result is normalized to Unknown during aggregation.
	}

	return &models.EventLog{
		EventType: ev.Event,
		JobID:     *ev.JobID,
		User:      ev.User,
		EventTime: ev.Timestamp.UTC(),
		Payload:   json.RawMessage(raw),
	}, nil
}
