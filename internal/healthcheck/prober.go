// Package healthcheck provides proactive backend probing.
package healthcheck

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

const (
	defaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 10 * time.Second
)

// Status describes the probed condition of a backend.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Report is the outcome of the most recent probe of one backend.
type Report struct {
	Backend   types.BackendKind `json:"backend"`
	Status    Status            `json:"status"`
	LatencyMs int64             `json:"latency_ms"`
	CheckedAt time.Time         `json:"checked_at"`
	Error     string            `json:"error,omitempty"`
}

// Config controls the proactive health checker behavior.
type Config struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// Dispatcher is the dispatch surface the prober drives. Probes go through
// the full synchronous path, so each one consumes a real backend call, a
// rate-limit slot, and a cache slot, and shows up in the metrics. A deep
// health check, not a shallow ping.
type Dispatcher interface {
	ProcessSync(ctx context.Context, req *types.TaskRequest) (*types.TaskResult, error)
	Backends() []types.BackendKind
}

// Prober periodically dispatches a minimal task to every registered
// backend and records the outcome.
type Prober struct {
	cfg        Config
	dispatcher Dispatcher
	logger     *slog.Logger
	started    atomic.Bool

	mu      sync.RWMutex
	reports map[types.BackendKind]Report
}

// NewProber creates a new health checker.
func NewProber(cfg Config, dispatcher Dispatcher, logger *slog.Logger) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultProbeInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		reports:    make(map[types.BackendKind]Report),
	}
}

// Start begins the probe loop until the context is canceled.
func (p *Prober) Start(ctx context.Context) {
	if p == nil || !p.cfg.Enabled {
		return
	}
	if p.dispatcher == nil {
		p.logger.Warn("healthcheck prober missing dispatcher")
		return
	}
	if !p.started.CompareAndSwap(false, true) {
		return
	}

	go p.run(ctx)
}

func (p *Prober) run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			p.RunOnce(ctx)
		case <-ctx.Done():
			p.logger.Info("healthcheck prober stopped")
			return
		}
	}
}

// RunOnce probes every registered backend and records the results.
func (p *Prober) RunOnce(ctx context.Context) {
	for _, kind := range p.dispatcher.Backends() {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		err := p.probeBackend(ctx, kind)
		latency := time.Since(start).Milliseconds()

		report := Report{
			Backend:   kind,
			Status:    classify(err),
			LatencyMs: latency,
			CheckedAt: time.Now(),
		}
		if err != nil {
			report.Error = err.Error()
			p.logger.Warn("healthcheck probe failed",
				"backend", kind,
				"status", report.Status,
				"error", err,
			)
		}

		p.mu.Lock()
		p.reports[kind] = report
		p.mu.Unlock()
	}
}

// probeBackend dispatches the synthetic task through the full path and
// reduces the outcome to an error.
func (p *Prober) probeBackend(ctx context.Context, kind types.BackendKind) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result, err := p.dispatcher.ProcessSync(probeCtx, probeRequest(kind))
	if err != nil {
		return err
	}
	if result == nil || !result.Success {
		return errors.New("healthcheck probe returned unsuccessful result")
	}
	return nil
}

// classify maps a probe error onto a status. Retryable failures leave the
// backend degraded; hard failures mark it unhealthy.
func classify(err error) Status {
	if err == nil {
		return StatusHealthy
	}
	var te *taskerr.Error
	if errors.As(err, &te) && te.Retryable {
		return StatusDegraded
	}
	return StatusUnhealthy
}

// Report returns the last probe result for one backend.
func (p *Prober) Report(kind types.BackendKind) (Report, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.reports[kind]
	return r, ok
}

// Reports returns a copy of the last probe result for every backend.
func (p *Prober) Reports() map[types.BackendKind]Report {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[types.BackendKind]Report, len(p.reports))
	for k, v := range p.reports {
		out[k] = v
	}
	return out
}

// Overall aggregates per-backend statuses: healthy when every backend is
// healthy, unhealthy when none are, degraded in between, unknown before
// the first probe.
func (p *Prober) Overall() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.reports) == 0 {
		return StatusUnknown
	}

	healthy := 0
	for _, r := range p.reports {
		if r.Status == StatusHealthy {
			healthy++
		}
	}
	switch healthy {
	case len(p.reports):
		return StatusHealthy
	case 0:
		return StatusUnhealthy
	default:
		return StatusDegraded
	}
}

// probeRequest is the minimal task used for deep probing. The backend name
// is part of the payload so probes for different backends never share a
// cache entry.
func probeRequest(kind types.BackendKind) *types.TaskRequest {
	return &types.TaskRequest{
		Type:    types.TaskScanOptimization,
		Payload: map[string]any{"probe": "healthcheck", "backend": kind.String()},
		Backend: kind,
	}
}
