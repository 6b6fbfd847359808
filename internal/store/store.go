package store

import (
	"context"
	"errors"
	"time"

	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
// Every method is all-or-nothing: a returned error means no state changed.
type Store interface {
	Ping(ctx context.Context) error

	// InsertEventLog appends an event unless the (job_id, event_type,
	// event_time) tuple already exists, in which case it returns the existing
	// row's id and isNew=false. Duplicates are never an error.
	InsertEventLog(ctx context.Context, e *models.EventLog) (id int64, isNew bool, err error)

	// ListJobIDsByStatus returns distinct job ids that have at least one event
	// in the given status, ordered by the oldest such event's timestamp so
	// long-pending jobs are picked up first.
	ListJobIDsByStatus(ctx context.Context, status string, limit int) ([]int64, error)

	// ListEventLogsByJob returns all events for a job in event-timestamp
	// order, regardless of arrival order.
	ListEventLogsByJob(ctx context.Context, jobID int64) ([]*models.EventLog, error)

	// UpdateJobEventStatus moves every event of a job to status in one atomic
	// update; a job's events are never left in mixed statuses.
	UpdateJobEventStatus(ctx context.Context, jobID int64, status string, opts ...StatusUpdateOption) error

	// CreateJobAnalytics inserts the analytics row for a job. A second insert
	// for the same job id returns ErrDuplicateKey and leaves the original row
	// untouched.
	CreateJobAnalytics(ctx context.Context, a *models.JobAnalytics) error

	// GetJobAnalytics returns ErrNotFound when the job has no analytics yet.
	GetJobAnalytics(ctx context.Context, jobID int64) (*models.JobAnalytics, error)

	// ListJobAnalyticsByEndDate returns all analytics rows whose end time
	// falls on the given UTC calendar date.
	ListJobAnalyticsByEndDate(ctx context.Context, date time.Time) ([]*models.JobAnalytics, error)
}

// StatusUpdate carries the optional parts of a status transition.
type StatusUpdate struct {
	ErrorMessage *string
}

type StatusUpdateOption func(*StatusUpdate)

// WithErrorMessage records error text alongside a FAILED transition.
func WithErrorMessage(msg string) StatusUpdateOption {
	return func(p *StatusUpdate) {
		p.ErrorMessage = &msg
	}
}
