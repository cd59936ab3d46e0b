// Package metrics holds the Prometheus collectors for the recommendation
// engine and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, path and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macromeal_http_requests_total",
		Help: "Total HTTP requests processed, by method, path and status.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes request latency by path.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "macromeal_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	// GenerationAttempts counts individual generation loop iterations by
	// outcome (accepted, rejected, failed).
	GenerationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macromeal_generation_attempts_total",
		Help: "Generation loop attempts, by outcome.",
	}, []string{"outcome"})

	// GenerationResults counts completed generation requests by final status.
	GenerationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macromeal_generation_results_total",
		Help: "Completed generation requests, by final status.",
	}, []string{"status"})

	// NutrientLookups counts nutrient lookups by result (hit, miss, error).
	NutrientLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macromeal_nutrient_lookups_total",
		Help: "Nutrient database lookups, by result.",
	}, []string{"result"})
)
