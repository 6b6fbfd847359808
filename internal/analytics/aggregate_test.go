package analytics_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/kiranshivaraju/sparkmetrics/internal/analytics"
	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 30, 10, 0, 0, 0, time.UTC)

func jobStart(jobID int64, ts time.Time) *models.EventLog {
	payload, _ := json.Marshal(map[string]any{"event": models.EventJobStart, "job_id": jobID})
	return &models.EventLog{
		EventType: models.EventJobStart,
		JobID:     jobID,
		User:      "data_engineer_1@example.com",
		EventTime: ts,
		Payload:   payload,
	}
}

func taskEnd(jobID int64, ts time.Time, taskID string, successful bool) *models.EventLog {
	payload, _ := json.Marshal(map[string]any{
		"event": models.EventTaskEnd, "job_id": jobID,
		"task_id": taskID, "duration_ms": 1500, "successful": successful,
	})
	return &models.EventLog{
		EventType: models.EventTaskEnd,
		JobID:     jobID,
		User:      "data_engineer_1@example.com",
		EventTime: ts,
		Payload:   payload,
	}
}

func jobEnd(jobID int64, ts time.Time, result string) *models.EventLog {
	fields := map[string]any{"event": models.EventJobEnd, "job_id": jobID}
	if result != "" {
		fields["job_result"] = result
	}
	payload, _ := json.Marshal(fields)
	return &models.EventLog{
		EventType: models.EventJobEnd,
		JobID:     jobID,
		User:      "data_engineer_1@example.com",
		EventTime: ts,
		Payload:   payload,
	}
}

// --- Ready ---

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		events []*models.EventLog
		want   bool
	}{
		{"start and end", []*models.EventLog{jobStart(1, baseTime), jobEnd(1, baseTime.Add(time.Minute), "JobSucceeded")}, true},
		{"start only", []*models.EventLog{jobStart(1, baseTime)}, false},
		{"end only", []*models.EventLog{jobEnd(1, baseTime, "JobSucceeded")}, false},
		{"tasks only", []*models.EventLog{taskEnd(1, baseTime, "t1", true)}, false},
		{"no tasks needed", []*models.EventLog{jobEnd(1, baseTime.Add(time.Minute), ""), jobStart(1, baseTime)}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.Ready(tt.events))
		})
	}
}

// --- Aggregate ---

func TestAggregate_FullJob(t *testing.T) {
	events := []*models.EventLog{
		jobStart(1, baseTime),
		taskEnd(1, baseTime.Add(5*time.Minute), "task_1_001", true),
		jobEnd(1, baseTime.Add(10*time.Minute), "JobSucceeded"),
	}

	a, err := analytics.Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.JobID)
	assert.Equal(t, "data_engineer_1@example.com", a.User)
	assert.Equal(t, 600.0, a.DurationSeconds)
	assert.Equal(t, 1, a.TaskCount)
	assert.Equal(t, 0, a.FailedTasks)
	assert.Equal(t, 100.0, a.SuccessRate)
	assert.Equal(t, models.ResultSucceeded, a.JobResult)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	events := []*models.EventLog{
		jobStart(3, baseTime),
		taskEnd(3, baseTime.Add(time.Minute), "t1", true),
		taskEnd(3, baseTime.Add(2*time.Minute), "t2", false),
		taskEnd(3, baseTime.Add(3*time.Minute), "t3", true),
		jobEnd(3, baseTime.Add(4*time.Minute), "JobSucceeded"),
	}

	want, err := analytics.Aggregate(events)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]*models.EventLog, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := analytics.Aggregate(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got, "permutation %d", i)
	}
}

func TestAggregate_SuccessRateRounding(t *testing.T) {
	// 3 tasks, 1 failed: 100 * 2/3 = 66.67 after rounding.
	events := []*models.EventLog{
		jobStart(3, baseTime),
		taskEnd(3, baseTime.Add(time.Minute), "t1", true),
		taskEnd(3, baseTime.Add(2*time.Minute), "t2", false),
		taskEnd(3, baseTime.Add(3*time.Minute), "t3", true),
		jobEnd(3, baseTime.Add(4*time.Minute), "JobSucceeded"),
	}

	a, err := analytics.Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, 3, a.TaskCount)
	assert.Equal(t, 1, a.FailedTasks)
	assert.Equal(t, 66.67, a.SuccessRate)
}

func TestAggregate_ZeroTasksIsFullSuccess(t *testing.T) {
	events := []*models.EventLog{
		jobStart(2, baseTime),
		jobEnd(2, baseTime.Add(time.Minute), "JobSucceeded"),
	}

	a, err := analytics.Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, 0, a.TaskCount)
	assert.Equal(t, 100.0, a.SuccessRate)
}

func TestAggregate_MissingEventsNotReady(t *testing.T) {
	_, err := analytics.Aggregate([]*models.EventLog{jobStart(1, baseTime)})
	assert.ErrorIs(t, err, analytics.ErrNotReady)

	_, err = analytics.Aggregate([]*models.EventLog{jobEnd(1, baseTime, "JobSucceeded")})
	assert.ErrorIs(t, err, analytics.ErrNotReady)

	_, err = analytics.Aggregate(nil)
	assert.ErrorIs(t, err, analytics.ErrNotReady)
}

func TestAggregate_UnknownResult(t *testing.T) {
	for _, result := range []string{"", "SomethingElse"} {
		events := []*models.EventLog{
			jobStart(1, baseTime),
			jobEnd(1, baseTime.Add(time.Minute), result),
		}
		a, err := analytics.Aggregate(events)
		require.NoError(t, err)
		assert.Equal(t, models.ResultUnknown, a.JobResult)
	}
}

func TestAggregate_EarliestStartLatestEnd(t *testing.T) {
	events := []*models.EventLog{
		jobStart(1, baseTime.Add(time.Minute)),
		jobStart(1, baseTime),
		jobEnd(1, baseTime.Add(5*time.Minute), "JobFailed"),
		jobEnd(1, baseTime.Add(10*time.Minute), "JobSucceeded"),
	}

	a, err := analytics.Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, baseTime, a.StartTime)
	assert.Equal(t, baseTime.Add(10*time.Minute), a.EndTime)
	assert.Equal(t, 600.0, a.DurationSeconds)
	assert.Equal(t, models.ResultSucceeded, a.JobResult)
}

func TestAggregate_EndBeforeStartFails(t *testing.T) {
	events := []*models.EventLog{
		jobStart(1, baseTime),
		jobEnd(1, baseTime.Add(-time.Minute), "JobSucceeded"),
	}

	_, err := analytics.Aggregate(events)
	require.Error(t, err)
	assert.NotErrorIs(t, err, analytics.ErrNotReady)
}

func TestAggregate_MalformedTaskPayloadFails(t *testing.T) {
	bad := taskEnd(1, baseTime.Add(time.Minute), "t1", true)
	bad.Payload = json.RawMessage(`{"successful": "yes"}`)

	events := []*models.EventLog{
		jobStart(1, baseTime),
		bad,
		jobEnd(1, baseTime.Add(2*time.Minute), "JobSucceeded"),
	}

	_, err := analytics.Aggregate(events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task-end payload")
}

func TestAggregate_ManyTasks(t *testing.T) {
	events := []*models.EventLog{
		jobStart(9, baseTime),
		jobEnd(9, baseTime.Add(time.Hour), "JobSucceeded"),
	}
	for i := 0; i < 20; i++ {
		events = append(events, taskEnd(9, baseTime.Add(time.Duration(i)*time.Minute),
			fmt.Sprintf("task_9_%03d", i), i%4 != 0)) // every 4th task fails
	}

	a, err := analytics.Aggregate(events)
	require.NoError(t, err)
	assert.Equal(t, 20, a.TaskCount)
	assert.Equal(t, 5, a.FailedTasks)
	assert.Equal(t, 75.0, a.SuccessRate)
	assert.Equal(t, 3600.0, a.DurationSeconds)
}
