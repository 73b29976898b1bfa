package aicore

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanforge/aicore/pkg/taskerr"
)

func TestProcessSync_RateLimitDenial(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL, WithRateLimit(1))
	req := &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	}

	_, err := svc.ProcessSync(context.Background(), req)
	require.NoError(t, err)

	// Second call in the same window is denied immediately.
	result, err := svc.ProcessSync(context.Background(), &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2023-4863"},
		Backend: BackendOpenAI,
	})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, err.Error(), "rate limit")

	var te *taskerr.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, TypeRateLimit, te.Type)
}

func TestProcessSync_AdmissionBeforeCache(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(chatHandler(&calls, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL, WithRateLimit(1))
	req := &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	}

	_, err := svc.ProcessSync(context.Background(), req)
	require.NoError(t, err)

	// An identical request is denied by admission even though its result
	// is sitting in the cache.
	_, err = svc.ProcessSync(context.Background(), req)
	require.Error(t, err)

	var te *taskerr.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, TypeRateLimit, te.Type)
	assert.Equal(t, int64(1), calls.Load())
}

func TestProcessSync_RateLimitedCountsAsFailure(t *testing.T) {
	server := httptest.NewServer(chatHandler(nil, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL, WithRateLimit(1))
	req := &TaskRequest{
		Type:    TaskVulnerabilityAnalysis,
		Payload: map[string]any{"cve": "CVE-2021-44228"},
		Backend: BackendOpenAI,
	}

	_, _ = svc.ProcessSync(context.Background(), req)
	_, _ = svc.ProcessSync(context.Background(), req)

	snap := svc.MetricsSnapshot()
	assert.Equal(t, uint64(2), snap.TotalRequests)
	assert.Equal(t, uint64(1), snap.SuccessfulRequests)
	assert.Equal(t, uint64(1), snap.FailedRequests)
	assert.Equal(t, uint64(1), snap.RateLimitedRequests)
}

func TestProcessSync_RateLimitDisabled(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(chatHandler(&calls, "ok"))
	defer server.Close()

	svc := newTestService(t, server.URL, WithRateLimit(0), WithCache(false))

	for i := 0; i < 5; i++ {
		_, err := svc.ProcessSync(context.Background(), &TaskRequest{
			Type:    TaskVulnerabilityAnalysis,
			Payload: map[string]any{"n": i},
			Backend: BackendOpenAI,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(5), calls.Load())
}
