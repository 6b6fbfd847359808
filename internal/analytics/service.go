package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/sparkmetrics/internal/cache"
	"github.com/kiranshivaraju/sparkmetrics/internal/metrics"
	"github.com/kiranshivaraju/sparkmetrics/internal/store"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

// ErrInvalidDate signals a malformed date argument to the daily summary.
var ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD")

const dateLayout = "2006-01-02"

// Service computes, commits, and serves job analytics. Reads go through the
// cache; a new analytics commit deletes the affected cache entries rather
// than updating them in place. Cache failures are logged and degrade to a
// store read, never to a wrong result.
type Service struct {
	store store.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewService creates an analytics Service with the given cache TTL.
func NewService(s store.Store, c cache.Cache, ttl time.Duration) *Service {
	return &Service{store: s, cache: c, ttl: ttl}
}

// ProcessJob derives and commits the analytics record for a job. It is
// idempotent: if a record already exists (including one committed by a
// concurrent run) it returns success without recomputation, which makes
// re-processing after crashes or redeliveries safe.
func (s *Service) ProcessJob(ctx context.Context, jobID int64) error {
	_, err := s.store.GetJobAnalytics(ctx, jobID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check existing analytics: %w", err)
	}

	events, err := s.store.ListEventLogsByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load events for job %d: %w", jobID, err)
	}

	record, err := Aggregate(events)
	if err != nil {
		return err
	}

	if err := s.store.CreateJobAnalytics(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// Lost the race to a concurrent run; its commit already
			// invalidated the cache.
			return nil
		}
		return err
	}

	s.invalidate(ctx, jobID, record.EndTime)
	return nil
}

// GetJobAnalytics returns the analytics record for a job, reading through
// the cache. Returns store.ErrNotFound when the job has not been analyzed.
func (s *Service) GetJobAnalytics(ctx context.Context, jobID int64) (*models.JobAnalytics, error) {
	key := cache.JobAnalyticsKey(jobID)

	if data, found := s.cacheGet(ctx, key, "job"); found {
		var a models.JobAnalytics
		if err := json.Unmarshal(data, &a); err == nil {
			return &a, nil
		}
		// Undecodable entry: fall through to the store and let the
		// repopulate overwrite it.
	}

	a, err := s.store.GetJobAnalytics(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, a)
	return a, nil
}

// GetDailySummary returns the rollup for all jobs whose analytics end time
// falls on the given date (YYYY-MM-DD). A date with no jobs yields zero
// totals and an empty job list, not an error.
func (s *Service) GetDailySummary(ctx context.Context, dateStr string) (*models.DailySummary, error) {
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}

	key := cache.DailySummaryKey(dateStr)
	if data, found := s.cacheGet(ctx, key, "summary"); found {
		var sum models.DailySummary
		if err := json.Unmarshal(data, &sum); err == nil {
			return &sum, nil
		}
	}

	rows, err := s.store.ListJobAnalyticsByEndDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list analytics for %s: %w", dateStr, err)
	}

	summary := buildDailySummary(dateStr, rows)
	s.cacheSet(ctx, key, summary)
	return summary, nil
}

func buildDailySummary(dateStr string, rows []*models.JobAnalytics) *models.DailySummary {
	summary := &models.DailySummary{
		Date: dateStr,
		Jobs: []models.JobSummary{},
	}
	if len(rows) == 0 {
		return summary
	}

	var totalDuration, totalRate float64
	for _, a := range rows {
		totalDuration += a.DurationSeconds
		totalRate += a.SuccessRate
		summary.Jobs = append(summary.Jobs, models.JobSummary{
			JobID:           a.JobID,
			User:            a.User,
			DurationSeconds: round2(a.DurationSeconds),
			TaskCount:       a.TaskCount,
			SuccessRate:     round2(a.SuccessRate),
			JobResult:       a.JobResult,
		})
	}

	n := float64(len(rows))
	summary.TotalJobs = len(rows)
	summary.AvgDurationSeconds = round2(totalDuration / n)
	summary.AvgSuccessRate = round2(totalRate / n)
	return summary
}

// invalidate deletes the cache entries a new analytics record makes stale:
// the job's own entry and the daily summary of its end date. Best effort;
// the next read recomputes from the store either way.
func (s *Service) invalidate(ctx context.Context, jobID int64, endTime time.Time) {
	if err := s.cache.Delete(ctx, cache.JobAnalyticsKey(jobID)); err != nil {
		slog.Warn("cache invalidation failed", "key", cache.JobAnalyticsKey(jobID), "error", err)
	}
	dateKey := cache.DailySummaryKey(endTime.UTC().Format(dateLayout))
	if err := s.cache.Delete(ctx, dateKey); err != nil {
		slog.Warn("cache invalidation failed", "key", dateKey, "error", err)
	}
}

func (s *Service) cacheGet(ctx context.Context, key, family string) ([]byte, bool) {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache read failed", "key", key, "error", err)
		metrics.CacheMissesTotal.WithLabelValues(family).Inc()
		return nil, false
	}
	if !found {
		metrics.CacheMissesTotal.WithLabelValues(family).Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.WithLabelValues(family).Inc()
	return data, true
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}
