package aicore

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAsync_ResolvesHandle(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "async result"))
	defer server.Close()

	svc := newTestService(t, server.URL)

	handle, err := svc.ProcessAsync(context.Background(), &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	})
	require.NoError(t, err)
	require.NotEmpty(t, handle.ID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "async result", result.Result["content"])
}

func TestProcessAsync_OnComplete(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL)

	handle, err := svc.ProcessAsync(context.Background(), &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	})
	require.NoError(t, err)

	done := make(chan *TaskResult, 1)
	handle.OnComplete(func(result *TaskResult, err error) {
		done <- result
	})

	select {
	case result := <-done:
		assert.True(t, result.Success)
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}

	// A callback registered after completion fires immediately.
	late := make(chan struct{})
	handle.OnComplete(func(*TaskResult, error) { close(late) })
	select {
	case <-late:
	default:
		t.Fatal("late callback did not run synchronously")
	}
}

func TestProcessAsync_CallerMayReuseRequest(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL)

	req := &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	}
	handle, err := svc.ProcessAsync(context.Background(), req)
	require.NoError(t, err)

	// The request was deep-copied at submission; mutating it now is safe.
	req.Payload["cve"] = "CVE-2023-4863"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestProcessAsync_ConcurrentSubmissions(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL, WithCache(false), WithWorkers(4, 64))

	const n = 32
	handles := make([]*TaskHandle, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := svc.ProcessAsync(context.Background(), &TaskRequest{
				Type:    TaskVulnerabilityAnalysis,
				Payload: map[string]any{"n": i},
				Backend: BackendOpenAI,
			})
			require.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seen := make(map[string]bool, n)
	for _, h := range handles {
		result, err := h.Wait(ctx)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, seen[h.ID()], "duplicate task id %s", h.ID())
		seen[h.ID()] = true
	}

	snap := svc.MetricsSnapshot()
	assert.Equal(t, uint64(n), snap.TotalRequests)
	assert.Equal(t, uint64(n), snap.SuccessfulRequests)
}

func TestProcessAsync_SubmitAfterClose(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL)
	require.NoError(t, svc.Close())

	_, err := svc.ProcessAsync(context.Background(), &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	})
	require.Error(t, err)
}

func TestProcessAsync_DetachedFromCallerContext(t *testing.T) {
	slow := httptest.NewServer(delayHandler(200 * time.Millisecond))
	defer slow.Close()

	svc := newTestService(t, slow.URL)

	submitCtx, cancelSubmit := context.WithCancel(context.Background())
	handle, err := svc.ProcessAsync(submitCtx, &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	})
	require.NoError(t, err)

	// Canceling the submission context must not cancel the dispatched task.
	cancelSubmit()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "slow", result.Result["content"])
}

func TestProcessAsync_WaitRespectsContext(t *testing.T) {
	slow := httptest.NewServer(delayHandler(2 * time.Second))
	defer slow.Close()

	svc := newTestService(t, slow.URL)

	handle, err := svc.ProcessAsync(context.Background(), &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = handle.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
