package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupJobs counts lookup job transitions by status.
	lookupJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_lookup_jobs_total",
			Help: "Total number of lookup job transitions by status",
		},
		[]string{"status"}, // status: queued, processing, completed, failed
	)

	// jobDuration tracks how long completed lookup jobs take.
	jobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codelf_lookup_job_duration_seconds",
			Help:    "Duration of completed lookup jobs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

func recordJob(status LookupJobStatus) {
	lookupJobs.WithLabelValues(string(status)).Inc()
}
