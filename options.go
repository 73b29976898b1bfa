package aicore

import (
	"net/http"
	"os"
	"time"

	"github.com/scanforge/aicore/internal/cache"
	"github.com/scanforge/aicore/internal/config"
	"github.com/scanforge/aicore/internal/observability"
	"github.com/scanforge/aicore/internal/pool"
	"github.com/scanforge/aicore/internal/resilience"
	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/types"
)

// ServiceConfig holds all configuration for the orchestration service.
type ServiceConfig struct {
	// Backends to register at construction time.
	Backends []backend.Config

	// DefaultBackend is used when a request names no backend. When unset,
	// the first registered backend becomes the default.
	DefaultBackend types.BackendKind

	// Caching
	CacheEnabled    bool
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Admission control
	RateLimitEnabled  bool
	RequestsPerMinute int

	// Async dispatch
	Workers    int
	QueueDepth int

	// Feature flags per task type
	Features config.FeatureConfig

	// HTTP
	Timeout    time.Duration
	HTTPClient *http.Client

	// Logging
	Logger   *observability.Logger
	LogLevel string

	// SanitizeLogs masks credential material in log output.
	SanitizeLogs bool
}

// Option is a function that configures the Service.
type Option func(*ServiceConfig)

// defaultConfig returns sensible defaults.
func defaultConfig() *ServiceConfig {
	return &ServiceConfig{
		CacheEnabled:      true,
		CacheTTL:          cache.DefaultTTL,
		CacheMaxEntries:   cache.DefaultMaxEntries,
		RateLimitEnabled:  true,
		RequestsPerMinute: resilience.DefaultRequestsPerMinute,
		Workers:           pool.DefaultWorkers,
		Features:          config.Defaults().Features,
		Timeout:           backend.DefaultTimeout,
		LogLevel:          "info",
		SanitizeLogs:      true,
	}
}

// WithBackend registers a backend at construction time.
//
// Example:
//
//	aicore.WithBackend(backend.NewConfig(aicore.BackendOpenAI, os.Getenv("OPENAI_API_KEY")))
func WithBackend(cfg backend.Config) Option {
	return func(c *ServiceConfig) {
		c.Backends = append(c.Backends, cfg)
	}
}

// WithDefaultBackend selects the backend used when a request names none.
func WithDefaultBackend(kind types.BackendKind) Option {
	return func(c *ServiceConfig) {
		c.DefaultBackend = kind
	}
}

// WithCache enables or disables the response cache.
func WithCache(enabled bool) Option {
	return func(c *ServiceConfig) {
		c.CacheEnabled = enabled
	}
}

// WithCacheTTL sets the default cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *ServiceConfig) {
		c.CacheTTL = ttl
	}
}

// WithCacheMaxEntries bounds the number of cached results.
func WithCacheMaxEntries(n int) Option {
	return func(c *ServiceConfig) {
		c.CacheMaxEntries = n
	}
}

// WithRateLimit sets the per-backend admission ceiling in requests per
// minute. A non-positive value disables admission control.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *ServiceConfig) {
		if requestsPerMinute <= 0 {
			c.RateLimitEnabled = false
			return
		}
		c.RateLimitEnabled = true
		c.RequestsPerMinute = requestsPerMinute
	}
}

// WithWorkers sets the async worker pool size and queue depth.
// Non-positive values fall back to defaults.
func WithWorkers(workers, queueDepth int) Option {
	return func(c *ServiceConfig) {
		c.Workers = workers
		c.QueueDepth = queueDepth
	}
}

// WithFeatures sets the per-task-type feature flags.
func WithFeatures(features config.FeatureConfig) Option {
	return func(c *ServiceConfig) {
		c.Features = features
	}
}

// WithTimeout sets the HTTP request timeout applied when a backend
// configuration does not set its own.
func WithTimeout(d time.Duration) Option {
	return func(c *ServiceConfig) {
		c.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client for backend calls. Per-request
// timeouts are still applied from the backend configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ServiceConfig) {
		c.HTTPClient = client
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *observability.Logger) Option {
	return func(c *ServiceConfig) {
		c.Logger = logger
	}
}

// WithSanitizeLogs controls credential masking in log output.
func WithSanitizeLogs(enabled bool) Option {
	return func(c *ServiceConfig) {
		c.SanitizeLogs = enabled
	}
}

// FromConfig applies a loaded layered configuration: cache, rate limiting,
// worker pool, feature flags, logging, and every enabled backend.
func FromConfig(cfg *config.Config) Option {
	return func(c *ServiceConfig) {
		c.CacheEnabled = cfg.Cache.Enabled
		if cfg.Cache.MaxEntries > 0 {
			c.CacheMaxEntries = cfg.Cache.MaxEntries
		}
		if cfg.Cache.DefaultTTL > 0 {
			c.CacheTTL = time.Duration(cfg.Cache.DefaultTTL) * time.Second
		}

		c.RateLimitEnabled = cfg.RateLimit.Enabled
		if cfg.RateLimit.RequestsPerMinute > 0 {
			c.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
		}

		if cfg.Service.ThreadPoolSize > 0 {
			c.Workers = cfg.Service.ThreadPoolSize
		}
		if cfg.Service.DefaultTimeout > 0 {
			c.Timeout = time.Duration(cfg.Service.DefaultTimeout) * time.Second
		}

		c.Features = cfg.Features
		c.LogLevel = cfg.Security.LogLevel
		c.SanitizeLogs = cfg.Security.SanitizeData

		c.Backends = append(c.Backends, cfg.BackendConfigs()...)
	}
}

// newDefaultLogger builds the service logger from the configured level and
// sanitization setting.
func newDefaultLogger(cfg *ServiceConfig) *observability.Logger {
	var redactor *observability.Redactor
	if cfg.SanitizeLogs {
		redactor = observability.NewRedactor()
	}
	return observability.NewLogger(observability.LoggerConfig{
		Level:  observability.ParseLevel(cfg.LogLevel),
		Output: os.Stderr,
	}, redactor)
}
