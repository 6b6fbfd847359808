package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Event Logs ---

func (s *PostgresStore) InsertEventLog(ctx context.Context, e *models.EventLog) (int64, bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO spark_event_logs (event_type, job_id, user_name, event_time, payload, ingested_at, processing_status)
		 VALUES ($1, $2, $3, $4, $5, NOW(), $6)
		 ON CONFLICT (job_id, event_type, event_time) DO NOTHING
		 RETURNING id`,
		e.EventType, e.JobID, e.User, e.EventTime, e.Payload, models.StatusPending,
	).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("insert event log: %w", err)
	}

	// Conflict: the tuple already exists, hand back the original id.
	err = s.pool.QueryRow(ctx,
		`SELECT id FROM spark_event_logs WHERE job_id = $1 AND event_type = $2 AND event_time = $3`,
		e.JobID, e.EventType, e.EventTime,
	).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("lookup duplicate event log: %w", err)
	}
	return id, false, nil
}

func (s *PostgresStore) ListJobIDsByStatus(ctx context.Context, status string, limit int) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT job_id FROM spark_event_logs
		 WHERE processing_status = $1
		 GROUP BY job_id
		 ORDER BY MIN(event_time) ASC
		 LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list job ids by status: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) ListEventLogsByJob(ctx context.Context, jobID int64) ([]*models.EventLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_type, job_id, user_name, event_time, payload, ingested_at, processing_status, processed_at, error_message
		 FROM spark_event_logs WHERE job_id = $1 ORDER BY event_time ASC, id ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list event logs by job: %w", err)
	}
	defer rows.Close()

	var logs []*models.EventLog
	for rows.Next() {
		var e models.EventLog
		if err := rows.Scan(&e.ID, &e.EventType, &e.JobID, &e.User, &e.EventTime, &e.Payload,
			&e.IngestedAt, &e.ProcessingStatus, &e.ProcessedAt, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan event log: %w", err)
		}
		logs = append(logs, &e)
	}
	return logs, rows.Err()
}

func (s *PostgresStore) UpdateJobEventStatus(ctx context.Context, jobID int64, status string, opts ...StatusUpdateOption) error {
	params := &StatusUpdate{}
	for _, opt := range opts {
		opt(params)
	}

	// A single UPDATE moves every event of the job at once, so an observer
	// never sees a job in mixed statuses.
	var err error
	if params.ErrorMessage != nil {
		_, err = s.pool.Exec(ctx,
			`UPDATE spark_event_logs SET processing_status = $2, processed_at = NOW(), error_message = $3
			 WHERE job_id = $1`, jobID, status, *params.ErrorMessage)
	} else {
		_, err = s.pool.Exec(ctx,
			`UPDATE spark_event_logs SET processing_status = $2, processed_at = NOW()
			 WHERE job_id = $1`, jobID, status)
	}
	if err != nil {
		return fmt.Errorf("update job event status: %w", err)
	}
	return nil
}

// --- Job Analytics ---

func (s *PostgresStore) CreateJobAnalytics(ctx context.Context, a *models.JobAnalytics) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO job_analytics (job_id, user_name, start_time, end_time, duration_seconds, task_count, failed_tasks, success_rate, job_result, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		a.JobID, a.User, a.StartTime, a.EndTime, a.DurationSeconds,
		a.TaskCount, a.FailedTasks, a.SuccessRate, a.JobResult,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job analytics: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJobAnalytics(ctx context.Context, jobID int64) (*models.JobAnalytics, error) {
	var a models.JobAnalytics
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_id, user_name, start_time, end_time, duration_seconds, task_count, failed_tasks, success_rate, job_result, created_at, updated_at
		 FROM job_analytics WHERE job_id = $1`, jobID,
	).Scan(&a.ID, &a.JobID, &a.User, &a.StartTime, &a.EndTime, &a.DurationSeconds,
		&a.TaskCount, &a.FailedTasks, &a.SuccessRate, &a.JobResult, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job analytics: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListJobAnalyticsByEndDate(ctx context.Context, date time.Time) ([]*models.JobAnalytics, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, user_name, start_time, end_time, duration_seconds, task_count, failed_tasks, success_rate, job_result, created_at, updated_at
		 FROM job_analytics WHERE end_time >= $1 AND end_time < $2 ORDER BY job_id ASC`,
		dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list job analytics by end date: %w", err)
	}
	defer rows.Close()

	var results []*models.JobAnalytics
	for rows.Next() {
		var a models.JobAnalytics
		if err := rows.Scan(&a.ID, &a.JobID, &a.User, &a.StartTime, &a.EndTime, &a.DurationSeconds,
			&a.TaskCount, &a.FailedTasks, &a.SuccessRate, &a.JobResult, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job analytics: %w", err)
		}
		results = append(results, &a)
	}
	return results, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
