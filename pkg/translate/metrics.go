package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Translation request metrics
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_translation_requests_total",
			Help: "Total number of translation provider requests",
		},
		[]string{"engine", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelf_translation_request_duration_seconds",
			Help:    "Duration of translation provider requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"engine", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelf_translation_request_size_bytes",
			Help:    "Size of translated query text in bytes",
			Buckets: []float64{4, 16, 64, 256, 1024},
		},
		[]string{"engine"},
	)

	translationResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelf_translation_response_size_bytes",
			Help:    "Size of the formatted translation in bytes",
			Buckets: []float64{4, 16, 64, 256, 1024},
		},
		[]string{"engine"},
	)

	// Cache metrics
	translationCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_translation_cache_hits_total",
			Help: "Translations served from the per-engine cache",
		},
		[]string{"engine"},
	)

	// Selector metrics
	translatorSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_translator_selections_total",
			Help: "Number of times each engine was picked by the round-robin selector",
		},
		[]string{"engine"},
	)
)

// MetricsCollector records metrics for one translation engine.
type MetricsCollector struct {
	engine string
}

// NewMetricsCollector creates a metrics collector for engine.
func NewMetricsCollector(engine string) *MetricsCollector {
	return &MetricsCollector{engine: engine}
}

// RecordTranslationRequest records metrics for a provider call.
func (mc *MetricsCollector) RecordTranslationRequest(duration time.Duration, success bool, requestSize, responseSize int) {
	status := "success"
	if !success {
		status = "error"
	}

	translationRequestsTotal.WithLabelValues(mc.engine, status).Inc()
	translationRequestDuration.WithLabelValues(mc.engine, status).Observe(duration.Seconds())
	translationRequestSize.WithLabelValues(mc.engine).Observe(float64(requestSize))
	if success {
		translationResponseSize.WithLabelValues(mc.engine).Observe(float64(responseSize))
	}
}

// RecordCacheHit records a translation served from cache.
func (mc *MetricsCollector) RecordCacheHit() {
	translationCacheHitsTotal.WithLabelValues(mc.engine).Inc()
}

// RecordSelection records the selector picking this engine.
func (mc *MetricsCollector) RecordSelection() {
	translatorSelectionsTotal.WithLabelValues(mc.engine).Inc()
}
