package aicore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/scanforge/aicore/internal/adapter/adapters"
	"github.com/scanforge/aicore/internal/cache"
	"github.com/scanforge/aicore/internal/healthcheck"
	"github.com/scanforge/aicore/internal/metrics"
	"github.com/scanforge/aicore/internal/observability"
	"github.com/scanforge/aicore/internal/pool"
	"github.com/scanforge/aicore/internal/resilience"
	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// Service is the main entry point for the orchestration library. It routes
// task requests to registered backends, with caching, admission control,
// and metrics handled on every path.
//
// Service is safe for concurrent use by multiple goroutines.
type Service struct {
	registry   *backend.Registry
	cache      *cache.ResponseCache
	limiter    *resilience.WindowLimiter
	recorder   *metrics.Recorder
	workers    *pool.Pool
	httpClient *http.Client
	logger     *observability.Logger
	config     *ServiceConfig
	prober     *healthcheck.Prober

	mu          sync.RWMutex
	configs     map[types.BackendKind]backend.Config
	defaultKind types.BackendKind
	closed      bool
}

// New creates an orchestration service with the given options.
//
// Example:
//
//	svc, err := aicore.New(
//	    aicore.WithBackend(backend.NewConfig(aicore.BackendOpenAI, os.Getenv("OPENAI_API_KEY"))),
//	    aicore.WithRateLimit(60),
//	)
func New(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = newDefaultLogger(cfg)
	}

	s := &Service{
		registry: backend.NewRegistry(),
		recorder: metrics.NewRecorder(),
		workers:  pool.New(cfg.Workers, cfg.QueueDepth),
		logger:   logger,
		config:   cfg,
		configs:  make(map[types.BackendKind]backend.Config),
	}

	if cfg.CacheEnabled {
		s.cache = cache.New(cache.Config{
			MaxEntries: cfg.CacheMaxEntries,
			DefaultTTL: cfg.CacheTTL,
		})
	}
	if cfg.RateLimitEnabled {
		s.limiter = resilience.NewWindowLimiter(cfg.RequestsPerMinute)
	}

	// HTTP client with connection pooling. Per-request deadlines come from
	// the backend configuration, so the client itself carries no timeout.
	s.httpClient = cfg.HTTPClient
	if s.httpClient == nil {
		s.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	adapters.RegisterAll(s.registry)

	for _, bcfg := range cfg.Backends {
		if err := s.RegisterBackend(bcfg); err != nil {
			s.workers.Close()
			return nil, fmt.Errorf("register backend %s: %w", bcfg.Kind, err)
		}
	}

	s.prober = healthcheck.NewProber(
		healthcheck.Config{Enabled: true, Timeout: cfg.Timeout},
		s,
		logger.Logger,
	)

	logger.Info("orchestration service initialized",
		"backends", len(cfg.Backends),
		"cache_enabled", cfg.CacheEnabled,
		"rate_limit_enabled", cfg.RateLimitEnabled,
		"workers", cfg.Workers,
	)

	return s, nil
}

// RegisterBackend validates a backend configuration and makes it routable.
// The first registered backend becomes the default for requests that name
// none, unless a default was set explicitly.
func (s *Service) RegisterBackend(cfg backend.Config) error {
	if cfg.Timeout <= 0 {
		cfg.Timeout = s.config.Timeout
	}

	if _, err := s.registry.CreateAdapter(cfg); err != nil {
		s.logger.RedactedError("backend registration failed",
			"backend", cfg.Kind.String(),
			"error", err,
		)
		return err
	}

	s.mu.Lock()
	s.configs[cfg.Kind] = cfg
	if s.defaultKind == "" {
		s.defaultKind = cfg.Kind
	}
	if s.config.DefaultBackend != "" {
		s.defaultKind = s.config.DefaultBackend
	}
	s.mu.Unlock()

	s.logger.RedactedInfo("backend registered",
		"backend", cfg.Kind.String(),
		"model", cfg.Model,
		"endpoint", cfg.Endpoint,
	)
	return nil
}

// ProcessSync dispatches a task request and blocks until a result is
// available. Failures are returned both as the error and as a TaskResult
// with Success false, so callers that only inspect the result still see
// the classified failure message.
func (s *Service) ProcessSync(ctx context.Context, req *types.TaskRequest) (*types.TaskResult, error) {
	if req == nil {
		return nil, taskerr.NewValidationError("request is nil")
	}
	if !req.Type.Valid() {
		s.recorder.RecordRejected()
		return failure(taskerr.NewValidationError(fmt.Sprintf("unknown task type %q", req.Type)))
	}
	if !s.config.Features.TaskTypeEnabled(req.Type) {
		s.recorder.RecordRejected()
		return failure(taskerr.NewValidationError(fmt.Sprintf("task type %s is disabled", req.Type)))
	}

	kind := req.Backend
	if kind == "" {
		s.mu.RLock()
		kind = s.defaultKind
		s.mu.RUnlock()
	}
	adapter, ok := s.registry.GetAdapter(kind)
	if !ok {
		s.recorder.RecordRejected()
		return failure(taskerr.NewConfigurationError(kind.String(), "backend not registered"))
	}

	// Admission is checked before the cache: a denied request fails even
	// when an identical result is already cached.
	if s.limiter != nil && !s.limiter.Check(kind) {
		s.recorder.RecordRateLimited(kind)
		s.logger.Warn("request rate limited", "backend", kind.String())
		return failure(taskerr.NewRateLimitError(kind.String()))
	}

	var key string
	if s.cache != nil {
		key = cache.RequestKey(req)
		if cached := s.cache.Get(key); cached != nil {
			cached.CacheHit = true
			cached.ProcessingTime = 0
			s.recorder.RecordCacheHit(kind, req.Type)
			return cached, nil
		}
		s.recorder.RecordCacheMiss(kind)
	}

	result, err := s.dispatch(ctx, adapter, req)
	if err != nil {
		s.recorder.RecordDispatch(kind, req.Type, false, time.Duration(result.ProcessingTime)*time.Millisecond)
		s.logger.RedactedError("task dispatch failed",
			"backend", kind.String(),
			"task_type", req.Type.String(),
			"error", err,
		)
		return result, err
	}

	s.recorder.RecordDispatch(kind, req.Type, true, time.Duration(result.ProcessingTime)*time.Millisecond)
	if s.cache != nil && result.Success {
		s.cache.Set(key, result, 0)
	}
	return result, nil
}

// dispatch executes one backend call: build, send with the backend's
// timeout, classify transport failures, and parse or map the response.
// The returned result always carries the wall-clock processing time.
func (s *Service) dispatch(ctx context.Context, adapter backend.Adapter, req *types.TaskRequest) (*types.TaskResult, error) {
	s.mu.RLock()
	cfg := s.configs[adapter.Kind()]
	s.mu.RUnlock()

	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	httpReq, err := adapter.BuildRequest(callCtx, req)
	if err != nil {
		return timedFailure(err, elapsed())
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return timedFailure(classifyTransport(adapter.Name(), err), elapsed())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return timedFailure(adapter.MapError(resp.StatusCode, body), elapsed())
	}

	result, err := adapter.ParseResponse(resp)
	if err != nil {
		return timedFailure(err, elapsed())
	}
	result.ProcessingTime = elapsed()
	return result, nil
}

// classifyTransport maps an HTTP client error onto the transport error
// taxonomy: timeout, TLS, or connection failure.
func classifyTransport(backendName string, err error) *taskerr.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return taskerr.NewTimeoutError(backendName)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return taskerr.NewTimeoutError(backendName)
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return taskerr.NewTLSError(backendName, certErr.Error())
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return taskerr.NewTLSError(backendName, recordErr.Error())
	}
	return taskerr.NewConnectionError(backendName, err.Error())
}

// failure wraps a classified error as a failed result. The same error is
// returned alongside so callers can use errors.As on it.
func failure(err error) (*types.TaskResult, error) {
	return &types.TaskResult{Success: false, Error: err.Error()}, err
}

func timedFailure(err error, elapsedMs int64) (*types.TaskResult, error) {
	return &types.TaskResult{Success: false, Error: err.Error(), ProcessingTime: elapsedMs}, err
}

// IsAvailable reports whether a backend is registered and enabled.
func (s *Service) IsAvailable(kind types.BackendKind) bool {
	s.mu.RLock()
	cfg, ok := s.configs[kind]
	s.mu.RUnlock()
	return ok && cfg.Enabled
}

// Backends returns the registered backend kinds.
func (s *Service) Backends() []types.BackendKind {
	return s.registry.Kinds()
}

// HealthCheck dispatches a minimal task to every registered backend through
// the full synchronous path and returns the per-backend reports. Each probe
// consumes a real backend call, a rate-limit slot, and a cache slot, and is
// visible in the metrics.
func (s *Service) HealthCheck(ctx context.Context) map[types.BackendKind]healthcheck.Report {
	s.prober.RunOnce(ctx)
	return s.prober.Reports()
}

// Health returns the aggregate status from the most recent probes.
func (s *Service) Health() healthcheck.Status {
	return s.prober.Overall()
}

// StartHealthProbes begins periodic background probing until the context
// is canceled.
func (s *Service) StartHealthProbes(ctx context.Context) {
	s.prober.Start(ctx)
}

// MetricsSnapshot returns a consistent copy of the aggregate metrics.
func (s *Service) MetricsSnapshot() metrics.Snapshot {
	return s.recorder.Snapshot()
}

// CacheStats returns cache counters, or zero stats when caching is off.
func (s *Service) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}

// InvalidateCache drops every cached result.
func (s *Service) InvalidateCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Close drains the worker pool and releases resources. Pending async tasks
// complete before Close returns.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.workers.Close()
	s.logger.Info("orchestration service closed")
	return nil
}
