// Package aicore provides AI-assisted task orchestration as a Go library.
// It routes structured task requests to interchangeable AI backends with
// response caching, per-backend rate limiting, and asynchronous dispatch.
//
// Basic usage:
//
//	svc, err := aicore.New(
//	    aicore.WithBackend(backend.NewConfig(aicore.BackendOpenAI, os.Getenv("OPENAI_API_KEY"))),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	result, err := svc.ProcessSync(ctx, &aicore.TaskRequest{
//	    Type:    aicore.TaskVulnerabilityAnalysis,
//	    Payload: map[string]any{"cve": "CVE-2021-44228"},
//	})
package aicore

import (
	"github.com/scanforge/aicore/internal/cache"
	"github.com/scanforge/aicore/internal/healthcheck"
	"github.com/scanforge/aicore/internal/metrics"
	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// Version is the current version of the orchestration core.
const Version = "1.0.0"

// Re-export core request/response types for convenience.
// Users can use aicore.TaskRequest instead of types.TaskRequest.
type (
	// TaskRequest is the unit of work submitted to the service.
	TaskRequest = types.TaskRequest

	// TaskResult is the outcome of a dispatched task.
	TaskResult = types.TaskResult

	// TaskType classifies the kind of analysis requested.
	TaskType = types.TaskType

	// BackendKind identifies an external AI backend.
	BackendKind = types.BackendKind
)

// Re-export backend types.
type (
	// Adapter is the interface every backend implementation satisfies.
	Adapter = backend.Adapter

	// BackendConfig holds the connection parameters for one backend.
	BackendConfig = backend.Config

	// AdapterFactory creates adapter instances from configuration.
	AdapterFactory = backend.Factory
)

// Re-export observability types.
type (
	// Snapshot is a consistent view of the aggregate metrics.
	Snapshot = metrics.Snapshot

	// BackendStats holds per-backend sub-metrics.
	BackendStats = metrics.BackendStats

	// CacheStats holds cache counters for monitoring.
	CacheStats = cache.Stats

	// HealthReport is the outcome of the most recent probe of one backend.
	HealthReport = healthcheck.Report

	// HealthStatus describes the probed condition of a backend.
	HealthStatus = healthcheck.Status
)

// Re-export error types.
type (
	// TaskError is a classified orchestration failure.
	TaskError = taskerr.Error
)

// Re-export backend kind constants.
const (
	BackendOpenAI = types.BackendOpenAI
	BackendClaude = types.BackendClaude
	BackendCustom = types.BackendCustom
	BackendLocal  = types.BackendLocal
)

// Re-export task type constants.
const (
	TaskVulnerabilityAnalysis = types.TaskVulnerabilityAnalysis
	TaskThreatModeling        = types.TaskThreatModeling
	TaskScanOptimization      = types.TaskScanOptimization
	TaskReportGeneration      = types.TaskReportGeneration
	TaskExploitSuggestion     = types.TaskExploitSuggestion
)

// Re-export health status constants.
const (
	StatusHealthy   = healthcheck.StatusHealthy
	StatusDegraded  = healthcheck.StatusDegraded
	StatusUnhealthy = healthcheck.StatusUnhealthy
	StatusUnknown   = healthcheck.StatusUnknown
)

// Re-export error type constants.
const (
	TypeConfiguration      = taskerr.TypeConfiguration
	TypeValidation         = taskerr.TypeValidation
	TypeRateLimit          = taskerr.TypeRateLimit
	TypeTimeout            = taskerr.TypeTimeout
	TypeConnection         = taskerr.TypeConnection
	TypeTLS                = taskerr.TypeTLS
	TypeBackendAuth        = taskerr.TypeBackendAuth
	TypeBackendRateLimit   = taskerr.TypeBackendRateLimit
	TypeBackendUnavailable = taskerr.TypeBackendUnavailable
	TypeBackend            = taskerr.TypeBackend
)

// Re-export error factory functions.
var (
	NewConfigurationError = taskerr.NewConfigurationError
	NewValidationError    = taskerr.NewValidationError
	NewRateLimitError     = taskerr.NewRateLimitError
	NewTimeoutError       = taskerr.NewTimeoutError
	NewConnectionError    = taskerr.NewConnectionError
	NewTLSError           = taskerr.NewTLSError
)

// NewBackendConfig returns a backend configuration with per-kind defaults
// filled in.
func NewBackendConfig(kind BackendKind, apiKey string) BackendConfig {
	return backend.NewConfig(kind, apiKey)
}
