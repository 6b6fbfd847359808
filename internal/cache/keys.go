package cache

import "fmt"

// JobAnalyticsKey caches the analytics record of a single job.
func JobAnalyticsKey(jobID int64) string {
	return fmt.Sprintf("job_analytics:%d", jobID)
}

// DailySummaryKey caches the rollup for one date (YYYY-MM-DD).
func DailySummaryKey(date string) string {
	return fmt.Sprintf("daily_summary:%s", date)
}

func RateLimitKey(clientAddr string) string {
	return fmt.Sprintf("ratelimit:%s", clientAddr)
}
