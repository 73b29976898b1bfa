package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/scanforge/aicore/pkg/types"
)

// sampleWindow bounds the latency samples kept for percentile estimation.
const sampleWindow = 1024

// BackendStats holds per-backend sub-metrics.
type BackendStats struct {
	RequestsSent       uint64    `json:"requests_sent"`
	RequestsSuccessful uint64    `json:"requests_successful"`
	RequestsFailed     uint64    `json:"requests_failed"`
	AvgResponseTimeMs  float64   `json:"avg_response_time_ms"`
	LastRequestTime    time.Time `json:"last_request_time"`

	totalMs float64
}

// Snapshot is a consistent, JSON-exportable view of the metrics state.
type Snapshot struct {
	TotalRequests       uint64 `json:"total_requests"`
	SuccessfulRequests  uint64 `json:"successful_requests"`
	FailedRequests      uint64 `json:"failed_requests"`
	CachedRequests      uint64 `json:"cached_requests"`
	RateLimitedRequests uint64 `json:"rate_limited_requests"`

	MinResponseTimeMs float64 `json:"min_response_time_ms"`
	MaxResponseTimeMs float64 `json:"max_response_time_ms"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	P50ResponseTimeMs float64 `json:"p50_response_time_ms"`
	P95ResponseTimeMs float64 `json:"p95_response_time_ms"`
	P99ResponseTimeMs float64 `json:"p99_response_time_ms"`

	Backends map[string]BackendStats `json:"backends"`

	// Business counters, keyed by task type.
	TasksCompleted map[string]uint64 `json:"tasks_completed"`

	StartTime time.Time `json:"start_time"`
	UptimeSec float64   `json:"uptime_seconds"`
}

// Recorder aggregates counters and timings for every dispatch. One instance
// lives for the service lifetime; it is shared by all callers and workers
// and guarded by a single mutex kept to short critical sections. Prometheus
// collectors are updated alongside the in-process aggregates.
type Recorder struct {
	mu sync.Mutex

	total       uint64
	success     uint64
	failed      uint64
	cached      uint64
	rateLimited uint64

	samples []float64
	nextIdx int

	minMs   float64
	maxMs   float64
	totalMs float64
	timed   uint64

	backends  map[types.BackendKind]*BackendStats
	completed map[types.TaskType]uint64

	start time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		samples:   make([]float64, 0, sampleWindow),
		backends:  make(map[types.BackendKind]*BackendStats),
		completed: make(map[types.TaskType]uint64),
		start:     time.Now(),
	}
}

// RecordDispatch records a completed backend call.
func (r *Recorder) RecordDispatch(kind types.BackendKind, taskType types.TaskType, success bool, elapsed time.Duration) {
	status := "failure"
	if success {
		status = "success"
	}
	TasksTotal.WithLabelValues(kind.String(), taskType.String(), status).Inc()
	TaskLatency.WithLabelValues(kind.String()).Observe(elapsed.Seconds())

	ms := float64(elapsed.Milliseconds())

	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
	if success {
		r.success++
		r.completed[taskType]++
	} else {
		r.failed++
	}

	r.timed++
	r.totalMs += ms
	if r.timed == 1 || ms < r.minMs {
		r.minMs = ms
	}
	if ms > r.maxMs {
		r.maxMs = ms
	}
	if len(r.samples) < sampleWindow {
		r.samples = append(r.samples, ms)
	} else {
		r.samples[r.nextIdx] = ms
		r.nextIdx = (r.nextIdx + 1) % sampleWindow
	}

	b := r.backendLocked(kind)
	b.RequestsSent++
	if success {
		b.RequestsSuccessful++
	} else {
		b.RequestsFailed++
	}
	b.totalMs += ms
	b.AvgResponseTimeMs = b.totalMs / float64(b.RequestsSent)
	b.LastRequestTime = time.Now()
}

// RecordCacheHit records a request served from the cache.
func (r *Recorder) RecordCacheHit(kind types.BackendKind, taskType types.TaskType) {
	CacheHits.WithLabelValues(kind.String()).Inc()
	TasksTotal.WithLabelValues(kind.String(), taskType.String(), "cached").Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	r.success++
	r.cached++
	r.completed[taskType]++
}

// RecordCacheMiss records a lookup that fell through to the backend.
func (r *Recorder) RecordCacheMiss(kind types.BackendKind) {
	CacheMisses.WithLabelValues(kind.String()).Inc()
}

// RecordRateLimited records an admission denial.
func (r *Recorder) RecordRateLimited(kind types.BackendKind) {
	RateLimited.WithLabelValues(kind.String()).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	r.failed++
	r.rateLimited++
}

// RecordRejected records a request rejected before backend resolution
// (unknown backend, unsupported task type). Only the failure counter moves.
func (r *Recorder) RecordRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	r.failed++
}

// Snapshot returns a consistent copy of the aggregate state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		TotalRequests:       r.total,
		SuccessfulRequests:  r.success,
		FailedRequests:      r.failed,
		CachedRequests:      r.cached,
		RateLimitedRequests: r.rateLimited,
		MinResponseTimeMs:   r.minMs,
		MaxResponseTimeMs:   r.maxMs,
		Backends:            make(map[string]BackendStats, len(r.backends)),
		TasksCompleted:      make(map[string]uint64, len(r.completed)),
		StartTime:           r.start,
		UptimeSec:           time.Since(r.start).Seconds(),
	}
	if r.timed > 0 {
		snap.AvgResponseTimeMs = r.totalMs / float64(r.timed)
	}

	if len(r.samples) > 0 {
		sorted := make([]float64, len(r.samples))
		copy(sorted, r.samples)
		sort.Float64s(sorted)
		snap.P50ResponseTimeMs = percentile(sorted, 0.50)
		snap.P95ResponseTimeMs = percentile(sorted, 0.95)
		snap.P99ResponseTimeMs = percentile(sorted, 0.99)
	}

	for kind, b := range r.backends {
		snap.Backends[kind.String()] = *b
	}
	for taskType, n := range r.completed {
		snap.TasksCompleted[taskType.String()] = n
	}

	return snap
}

// SuccessRate returns the fraction of successful requests.
func (r *Recorder) SuccessRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.total == 0 {
		return 0
	}
	return float64(r.success) / float64(r.total)
}

// CacheHitRate returns the fraction of requests served from the cache.
func (r *Recorder) CacheHitRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.total == 0 {
		return 0
	}
	return float64(r.cached) / float64(r.total)
}

func (r *Recorder) backendLocked(kind types.BackendKind) *BackendStats {
	b, ok := r.backends[kind]
	if !ok {
		b = &BackendStats{}
		r.backends[kind] = b
	}
	return b
}

// percentile returns the value at quantile q from an ascending sample set.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
