// Package resilience implements the per-backend admission controller.
package resilience

import (
	"sync"
	"time"

	"github.com/scanforge/aicore/pkg/types"
)

const (
	// DefaultRequestsPerMinute is the per-backend admission ceiling.
	DefaultRequestsPerMinute = 60

	// windowSize is the fixed admission window.
	windowSize = time.Minute
)

type window struct {
	ceiling int
	count   int
	start   time.Time
}

// WindowLimiter bounds requests per backend with a fixed 60-second window.
// It is advisory only: a denied request is an immediate failure, never
// queued or delayed.
type WindowLimiter struct {
	mu      sync.Mutex
	windows map[types.BackendKind]*window
	ceiling int

	// now is replaceable in tests to simulate window expiry.
	now func() time.Time
}

// NewWindowLimiter creates a limiter with the given per-backend ceiling.
// A non-positive ceiling falls back to the default.
func NewWindowLimiter(requestsPerMinute int) *WindowLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &WindowLimiter{
		windows: make(map[types.BackendKind]*window),
		ceiling: requestsPerMinute,
		now:     time.Now,
	}
}

// Check admits or denies one request for the backend. If the window has
// expired the count resets and the window restarts before evaluation. At
// the ceiling the request is denied without incrementing; otherwise the
// count increments and the request is admitted.
func (l *WindowLimiter) Check(kind types.BackendKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windowLocked(kind)
	if w.count >= w.ceiling {
		return false
	}
	w.count++
	return true
}

// Remaining returns the number of requests still admissible in the current
// window.
func (l *WindowLimiter) Remaining(kind types.BackendKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windowLocked(kind)
	return w.ceiling - w.count
}

// Ceiling returns the configured ceiling for the backend.
func (l *WindowLimiter) Ceiling(kind types.BackendKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.windowLocked(kind).ceiling
}

// SetCeiling overrides the ceiling for one backend. The current window
// count is preserved.
func (l *WindowLimiter) SetCeiling(kind types.BackendKind, ceiling int) {
	if ceiling <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windowLocked(kind).ceiling = ceiling
}

// windowLocked returns the backend's window, creating or resetting it as
// needed. Caller holds the lock.
func (l *WindowLimiter) windowLocked(kind types.BackendKind) *window {
	now := l.now()

	w, ok := l.windows[kind]
	if !ok {
		w = &window{ceiling: l.ceiling, start: now}
		l.windows[kind] = w
		return w
	}

	if now.Sub(w.start) >= windowSize {
		w.count = 0
		w.start = now
	}
	return w
}
