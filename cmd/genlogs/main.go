// Package main generates synthetic Spark event logs for exercising the
// ingestion pipeline end to end. Each job's events are shuffled to simulate
// out-of-order arrival.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/kiranshivaraju/sparkmetrics/pkg/models"
)

var users = []string{
	"data_engineer_1@example.com",
	"data_scientist_2@example.com",
	"ml_engineer@example.com",
	"analyst@example.com",
	"data_ops@example.com",
}

type event map[string]any

func main() {
	output := flag.String("output", "sample_logs.json", "output file path")
	jobs := flag.Int("jobs", 10, "number of jobs to generate")
	days := flag.Int("days", 5, "number of days in the past to spread the jobs")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	events := generateSampleLogs(rng, *jobs, *days)

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		slog.Error("marshal events", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		slog.Error("write output", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d events for %d jobs and saved to %s\n",
		len(events), *jobs, *output)
}

func generateSampleLogs(rng *rand.Rand, numJobs, daysBack int) []event {
	var all []event
	const startJobID = 100
	for i := 0; i < numJobs; i++ {
		jobID := int64(startJobID + i)
		user := users[rng.Intn(len(users))]
		startTime := time.Now().UTC().
			Add(-time.Duration(rng.Intn(daysBack+1)) * 24 * time.Hour).
			Add(-time.Duration(rng.Intn(24)) * time.Hour)
		duration := time.Duration(1+rng.Intn(60)) * time.Minute
		numTasks := 5 + rng.Intn(16)
		failureRate := rng.Float64() * 0.3

		all = append(all, generateJobEvents(rng, jobID, startTime, duration, user, numTasks, failureRate)...)
	}
	return all
}

// generateJobEvents produces a complete, shuffled event set for one job.
func generateJobEvents(rng *rand.Rand, jobID int64, startTime time.Time,
	duration time.Duration, user string, numTasks int, failureRate float64) []event {

	events := []event{{
		"event":     models.EventJobStart,
		"job_id":    jobID,
		"timestamp": formatTimestamp(startTime),
		"user":      user,
	}}

	endTime := startTime.Add(duration)
	taskInterval := duration / time.Duration(numTasks)

	failedTasks := 0
	for i := 0; i < numTasks; i++ {
		taskSuccess := rng.Float64() > failureRate
		if !taskSuccess {
			failedTasks++
		}
		events = append(events, event{
			"event":       models.EventTaskEnd,
			"job_id":      jobID,
			"timestamp":   formatTimestamp(startTime.Add(taskInterval * time.Duration(i))),
			"user":        user,
			"task_id":     fmt.Sprintf("task_%d_%03d", jobID, i),
			"duration_ms": int64(500 + rng.Intn(14501)),
			"successful":  taskSuccess,
		})
	}

	// The job as a whole fails when at least half of its tasks failed.
	jobResult := models.ResultSucceeded
	if numTasks > 0 && float64(failedTasks)/float64(numTasks) >= 0.5 {
		jobResult = models.ResultFailed
	}

	events = append(events, event{
		"event":           models.EventJobEnd,
		"job_id":          jobID,
		"timestamp":       formatTimestamp(endTime),
		"user":            user,
		"completion_time": formatTimestamp(endTime),
		"job_result":      jobResult,
	})

	rng.Shuffle(len(events), func(i, j int) {
		events[i], events[j] = events[j], events[i]
	})

	return events
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
