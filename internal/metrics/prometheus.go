// Package metrics provides aggregated in-process metrics plus Prometheus
// collectors for the orchestration service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aicore"

// LatencyBuckets covers the expected backend latency range, from fast local
// models to slow hosted completions.
var LatencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0,
	7.5, 10.0, 15.0, 20.0, 30.0, 60.0, 120.0,
}

var (
	// TasksTotal counts dispatched tasks by backend, task type, and outcome.
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Total number of dispatched tasks",
		},
		[]string{"backend", "task_type", "status"},
	)

	// TaskLatency tracks backend call latency.
	TaskLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_latency_seconds",
			Help:      "Backend task latency in seconds",
			Buckets:   LatencyBuckets,
		},
		[]string{"backend"},
	)

	// CacheHits counts responses served from the cache.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"backend"},
	)

	// CacheMisses counts lookups that fell through to a backend.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"backend"},
	)

	// RateLimited counts requests denied by the admission controller.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests denied by rate limiting",
		},
		[]string{"backend"},
	)
)
