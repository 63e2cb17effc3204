package searchcode

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_code_search_requests_total",
			Help: "Total number of code search requests",
		},
		[]string{"status"},
	)

	searchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelf_code_search_request_duration_seconds",
			Help:    "Duration of code search requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 15.0},
		},
		[]string{"status"},
	)

	searchResultsCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codelf_code_search_results",
			Help:    "Number of files returned per code search",
			Buckets: []float64{0, 1, 5, 10, 20, 42, 100},
		},
	)
)

func recordSearch(duration time.Duration, success bool, results int) {
	status := "success"
	if !success {
		status = "error"
	}
	searchRequestsTotal.WithLabelValues(status).Inc()
	searchRequestDuration.WithLabelValues(status).Observe(duration.Seconds())
	if success {
		searchResultsCount.Observe(float64(results))
	}
}
