package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for monitoring ingestion and processing.
var (
	EventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_events_ingested_total",
			Help: "Total number of event logs accepted, by event type",
		},
		[]string{"event_type"},
	)

	EventsDuplicateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spark_events_duplicate_total",
			Help: "Total number of duplicate event deliveries (no-op ingestions)",
		},
	)

	EventsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spark_events_rejected_total",
			Help: "Total number of event logs rejected at the ingestion boundary",
		},
	)

	JobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_jobs_processed_total",
			Help: "Total number of orchestration runs, by outcome",
		},
		[]string{"outcome"},
	)

	JobProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spark_job_processing_duration_seconds",
			Help:    "Duration of single-job orchestration runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spark_sweep_duration_seconds",
			Help:    "Duration of batch sweeps over pending jobs",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_analytics_cache_hits_total",
			Help: "Total number of analytics cache hits, by key family",
		},
		[]string{"family"},
	)

	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spark_analytics_cache_misses_total",
			Help: "Total number of analytics cache misses, by key family",
		},
		[]string{"family"},
	)
)

// Outcome label values for JobsProcessedTotal.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(
		EventsIngestedTotal,
		EventsDuplicateTotal,
		EventsRejectedTotal,
		JobsProcessedTotal,
		JobProcessingDuration,
		SweepDuration,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}
