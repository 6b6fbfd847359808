package models

import "time"

// Final result of a Spark job, taken from the job-end event payload.
const (
	ResultSucceeded = "JobSucceeded"
	ResultFailed    = "JobFailed"
	ResultUnknown   = "Unknown"
)

// NormalizeJobResult maps a raw job_result payload value onto the closed
// result set. Anything absent or unrecognized becomes ResultUnknown.
func NormalizeJobResult(raw string) string {
	switch raw {
	case ResultSucceeded, ResultFailed:
		return raw
	default:
		return ResultUnknown
	}
}

// JobAnalytics holds the derived metrics for one job. Exactly zero or one
// row exists per job id, and the row is immutable once written.
type JobAnalytics struct {
	ID              int64     `db:"id"               json:"-"`
	JobID           int64     `db:"job_id"           json:"job_id"`
	User            string    `db:"user_name"        json:"user"`
	StartTime       time.Time `db:"start_time"       json:"start_time"`
	EndTime         time.Time `db:"end_time"         json:"end_time"`
	DurationSeconds float64   `db:"duration_seconds" json:"duration_seconds"`
	TaskCount       int       `db:"task_count"       json:"task_count"`
	FailedTasks     int       `db:"failed_tasks"     json:"failed_tasks"`
	SuccessRate     float64   `db:"success_rate"     json:"success_rate"`
	JobResult       string    `db:"job_result"       json:"job_result"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"       json:"updated_at"`
}

// JobSummary is the per-job slice of a daily summary.
type JobSummary struct {
	JobID           int64   `json:"job_id"`
	User            string  `json:"user"`
	DurationSeconds float64 `json:"duration_seconds"`
	TaskCount       int     `json:"task_count"`
	SuccessRate     float64 `json:"success_rate"`
	JobResult       string  `json:"job_result"`
}

// DailySummary aggregates all jobs whose end time falls on Date.
type DailySummary struct {
	Date               string       `json:"date"`
	TotalJobs          int          `json:"total_jobs"`
	AvgDurationSeconds float64      `json:"avg_duration_seconds"`
	AvgSuccessRate     float64      `json:"avg_success_rate"`
	Jobs               []JobSummary `json:"jobs"`
}
