package healthcheck

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scanforge/aicore/internal/adapter"
	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// scriptedDispatcher returns a canned outcome per backend and records the
// requests it receives.
type scriptedDispatcher struct {
	mu       sync.Mutex
	outcomes map[types.BackendKind]error
	requests []*types.TaskRequest
}

func (d *scriptedDispatcher) ProcessSync(_ context.Context, req *types.TaskRequest) (*types.TaskResult, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if err := d.outcomes[req.Backend]; err != nil {
		return &types.TaskResult{Success: false, Error: err.Error()}, err
	}
	return adapter.SuccessResult("ok", req.Backend.String()), nil
}

func (d *scriptedDispatcher) Backends() []types.BackendKind {
	kinds := make([]types.BackendKind, 0, len(d.outcomes))
	for k := range d.outcomes {
		kinds = append(kinds, k)
	}
	return kinds
}

func (d *scriptedDispatcher) received() []*types.TaskRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*types.TaskRequest(nil), d.requests...)
}

func newTestProber(dispatcher Dispatcher) *Prober {
	return NewProber(Config{Enabled: true, Interval: time.Second, Timeout: time.Second}, dispatcher, nil)
}

func TestProber_RunOnce_HealthyBackend(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcomes: map[types.BackendKind]error{
		types.BackendOpenAI: nil,
	}}
	prober := newTestProber(dispatcher)

	prober.RunOnce(context.Background())

	report, ok := prober.Report(types.BackendOpenAI)
	require.True(t, ok)
	require.Equal(t, StatusHealthy, report.Status)
	require.Empty(t, report.Error)
	require.Equal(t, StatusHealthy, prober.Overall())
}

func TestProber_RunOnce_RetryableFailureMarksDegraded(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcomes: map[types.BackendKind]error{
		types.BackendOpenAI: taskerr.MapHTTPStatus("openai", 503, "overloaded"),
	}}
	prober := newTestProber(dispatcher)

	prober.RunOnce(context.Background())

	report, ok := prober.Report(types.BackendOpenAI)
	require.True(t, ok)
	require.Equal(t, StatusDegraded, report.Status)
	require.Contains(t, report.Error, "overloaded")
}

func TestProber_RunOnce_HardFailureMarksUnhealthy(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcomes: map[types.BackendKind]error{
		types.BackendOpenAI: taskerr.MapHTTPStatus("openai", 401, "bad key"),
	}}
	prober := newTestProber(dispatcher)

	prober.RunOnce(context.Background())

	report, ok := prober.Report(types.BackendOpenAI)
	require.True(t, ok)
	require.Equal(t, StatusUnhealthy, report.Status)
	require.Equal(t, StatusUnhealthy, prober.Overall())
}

func TestProber_RunOnce_ProbesThroughDispatcher(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcomes: map[types.BackendKind]error{
		types.BackendOpenAI: nil,
		types.BackendLocal:  nil,
	}}
	prober := newTestProber(dispatcher)

	prober.RunOnce(context.Background())

	requests := dispatcher.received()
	require.Len(t, requests, 2)

	seen := make(map[types.BackendKind]*types.TaskRequest)
	for _, req := range requests {
		require.Equal(t, types.TaskScanOptimization, req.Type)
		seen[req.Backend] = req
	}
	require.Contains(t, seen, types.BackendOpenAI)
	require.Contains(t, seen, types.BackendLocal)

	// Payloads must differ per backend so probes never share a cache entry.
	require.NotEqual(t,
		seen[types.BackendOpenAI].Payload["backend"],
		seen[types.BackendLocal].Payload["backend"],
	)
}

func TestProber_Overall_MixedIsDegraded(t *testing.T) {
	dispatcher := &scriptedDispatcher{outcomes: map[types.BackendKind]error{
		types.BackendOpenAI: nil,
		types.BackendLocal:  taskerr.MapHTTPStatus("local", 500, "down"),
	}}
	prober := newTestProber(dispatcher)

	prober.RunOnce(context.Background())

	require.Equal(t, StatusDegraded, prober.Overall())
	require.Len(t, prober.Reports(), 2)
}

func TestProber_Overall_UnknownBeforeFirstProbe(t *testing.T) {
	prober := newTestProber(&scriptedDispatcher{outcomes: map[types.BackendKind]error{}})
	require.Equal(t, StatusUnknown, prober.Overall())
}
