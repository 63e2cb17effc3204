package codelf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeEmpty  = "empty"
	outcomeCached = "cached"
	outcomeFresh  = "fresh"
	outcomeError  = "error"
)

var (
	// variableCacheLookups counts result cache lookups by result.
	variableCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_variable_cache_lookups_total",
			Help: "Total number of variable result cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// variableRequests counts RequestVariable calls by terminal state.
	variableRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelf_variable_requests_total",
			Help: "Total number of variable requests by outcome",
		},
		[]string{"outcome"}, // outcome: empty, cached, fresh, error
	)
)

func recordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	variableCacheLookups.WithLabelValues(result).Inc()
}

func recordOutcome(outcome string) {
	variableRequests.WithLabelValues(outcome).Inc()
}
