package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/scanforge/aicore/pkg/types"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder()

	r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, true, 100*time.Millisecond)
	r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, false, 50*time.Millisecond)
	r.RecordCacheHit(types.BackendOpenAI, types.TaskVulnerabilityAnalysis)
	r.RecordRateLimited(types.BackendOpenAI)
	r.RecordRejected()

	snap := r.Snapshot()

	if snap.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, want 5", snap.TotalRequests)
	}
	if snap.SuccessfulRequests != 2 {
		t.Errorf("SuccessfulRequests = %d, want 2", snap.SuccessfulRequests)
	}
	if snap.FailedRequests != 3 {
		t.Errorf("FailedRequests = %d, want 3", snap.FailedRequests)
	}
	if snap.CachedRequests != 1 {
		t.Errorf("CachedRequests = %d, want 1", snap.CachedRequests)
	}
	if snap.RateLimitedRequests != 1 {
		t.Errorf("RateLimitedRequests = %d, want 1", snap.RateLimitedRequests)
	}
}

func TestRecorderLatencyAggregates(t *testing.T) {
	r := NewRecorder()

	for _, ms := range []int{100, 200, 300, 400} {
		r.RecordDispatch(types.BackendClaude, types.TaskReportGeneration, true, time.Duration(ms)*time.Millisecond)
	}

	snap := r.Snapshot()

	if snap.MinResponseTimeMs != 100 {
		t.Errorf("Min = %v, want 100", snap.MinResponseTimeMs)
	}
	if snap.MaxResponseTimeMs != 400 {
		t.Errorf("Max = %v, want 400", snap.MaxResponseTimeMs)
	}
	if snap.AvgResponseTimeMs != 250 {
		t.Errorf("Avg = %v, want 250", snap.AvgResponseTimeMs)
	}
	if snap.P50ResponseTimeMs != 200 {
		t.Errorf("P50 = %v, want 200", snap.P50ResponseTimeMs)
	}
	if snap.P99ResponseTimeMs != 400 {
		t.Errorf("P99 = %v, want 400", snap.P99ResponseTimeMs)
	}
}

func TestRecorderPerBackend(t *testing.T) {
	r := NewRecorder()

	r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, true, 100*time.Millisecond)
	r.RecordDispatch(types.BackendClaude, types.TaskVulnerabilityAnalysis, false, 200*time.Millisecond)

	snap := r.Snapshot()

	oa := snap.Backends["openai"]
	if oa.RequestsSent != 1 || oa.RequestsSuccessful != 1 {
		t.Errorf("openai stats = %+v", oa)
	}
	cl := snap.Backends["claude"]
	if cl.RequestsSent != 1 || cl.RequestsFailed != 1 {
		t.Errorf("claude stats = %+v", cl)
	}
	if cl.AvgResponseTimeMs != 200 {
		t.Errorf("claude avg = %v, want 200", cl.AvgResponseTimeMs)
	}
}

func TestRecorderBusinessCounters(t *testing.T) {
	r := NewRecorder()

	r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, true, time.Millisecond)
	r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, true, time.Millisecond)
	r.RecordDispatch(types.BackendOpenAI, types.TaskThreatModeling, true, time.Millisecond)
	// Failures do not count as completed work.
	r.RecordDispatch(types.BackendOpenAI, types.TaskReportGeneration, false, time.Millisecond)

	snap := r.Snapshot()

	if got := snap.TasksCompleted["vulnerability_analysis"]; got != 2 {
		t.Errorf("vulnerability_analysis = %d, want 2", got)
	}
	if got := snap.TasksCompleted["threat_modeling"]; got != 1 {
		t.Errorf("threat_modeling = %d, want 1", got)
	}
	if got := snap.TasksCompleted["report_generation"]; got != 0 {
		t.Errorf("report_generation = %d, want 0", got)
	}
}

func TestRecorderRates(t *testing.T) {
	r := NewRecorder()

	r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, true, time.Millisecond)
	r.RecordCacheHit(types.BackendOpenAI, types.TaskVulnerabilityAnalysis)
	r.RecordRateLimited(types.BackendOpenAI)
	r.RecordRejected()

	if got := r.SuccessRate(); got != 0.5 {
		t.Errorf("SuccessRate() = %v, want 0.5", got)
	}
	if got := r.CacheHitRate(); got != 0.25 {
		t.Errorf("CacheHitRate() = %v, want 0.25", got)
	}
}

func TestRecorderConcurrentUpdates(t *testing.T) {
	r := NewRecorder()

	const goroutines = 16
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				r.RecordDispatch(types.BackendOpenAI, types.TaskVulnerabilityAnalysis, true, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	if snap.TotalRequests != goroutines*perGoroutine {
		t.Errorf("TotalRequests = %d, want %d (lost update)", snap.TotalRequests, goroutines*perGoroutine)
	}
}
