package models

import (
	"encoding/json"
	"time"
)

// Spark listener event types recognized by the ingestion pipeline.
const (
	EventJobStart = "SparkListenerJobStart"
	EventTaskEnd  = "SparkListenerTaskEnd"
	EventJobEnd   = "SparkListenerJobEnd"
)

// Processing status of an event log. Transitions are driven exclusively by
// the worker: PENDING -> PROCESSING -> {PROCESSED, FAILED}, with a
// PROCESSING -> PENDING rollback when the job is not yet ready.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusProcessed  = "PROCESSED"
	StatusFailed     = "FAILED"
)

// ValidEventType reports whether t is one of the recognized event types.
func ValidEventType(t string) bool {
	return t == EventJobStart || t == EventTaskEnd || t == EventJobEnd
}

// EventLog is a raw Spark event as persisted. A row is unique per
// (job_id, event_type, event_time); re-ingesting the same tuple is a no-op.
type EventLog struct {
	ID               int64           `db:"id"                json:"id"`
	EventType        string          `db:"event_type"        json:"event_type"`
	JobID            int64           `db:"job_id"            json:"job_id"`
	User             string          `db:"user_name"         json:"user"`
	EventTime        time.Time       `db:"event_time"        json:"event_time"`
	Payload          json.RawMessage `db:"payload"           json:"payload"`
	IngestedAt       time.Time       `db:"ingested_at"       json:"ingested_at"`
	ProcessingStatus string          `db:"processing_status" json:"processing_status"`
	ProcessedAt      *time.Time      `db:"processed_at"      json:"processed_at,omitempty"`
	ErrorMessage     *string         `db:"error_message"     json:"error_message,omitempty"`
}

// TaskEndPayload is the typed payload of a SparkListenerTaskEnd event.
type TaskEndPayload struct {
	TaskID     string `json:"task_id"`
	DurationMS int64  `json:"duration_ms"`
	Successful bool   `json:"successful"`
}

// JobEndPayload is the typed payload of a SparkListenerJobEnd event.
// Both fields are optional on the wire; an absent or unrecognized JobResult
// is normalized to ResultUnknown during aggregation.
type JobEndPayload struct {
	CompletionTime *time.Time `json:"completion_time,omitempty"`
	JobResult      string     `json:"job_result,omitempty"`
}
