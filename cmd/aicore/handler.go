package main

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/goccy/go-json"

	aicore "github.com/scanforge/aicore"
	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// handler exposes the orchestration service over HTTP.
type handler struct {
	svc    *aicore.Service
	logger *slog.Logger

	mu      sync.RWMutex
	handles map[string]*aicore.TaskHandle
}

func newHandler(svc *aicore.Service, logger *slog.Logger) *handler {
	return &handler{
		svc:     svc,
		logger:  logger,
		handles: make(map[string]*aicore.TaskHandle),
	}
}

// ProcessTask handles POST /v1/tasks: synchronous dispatch.
func (h *handler) ProcessTask(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	result, err := h.svc.ProcessSync(r.Context(), req)
	if err != nil {
		writeJSON(w, statusFor(err), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SubmitTask handles POST /v1/tasks/async: enqueue and return a task id.
func (h *handler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeTask(w, r)
	if !ok {
		return
	}

	handle, err := h.svc.ProcessAsync(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	h.mu.Lock()
	h.handles[handle.ID()] = handle
	h.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": handle.ID()})
}

// TaskStatus handles GET /v1/tasks/{id}: poll an async task.
func (h *handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	h.mu.RLock()
	handle, ok := h.handles[id]
	h.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown task id"))
		return
	}

	select {
	case <-handle.Done():
		// Terminal results are delivered once; drop the handle so the map
		// does not grow with every completed task.
		h.mu.Lock()
		delete(h.handles, id)
		h.mu.Unlock()

		result, err := handle.Result()
		status := http.StatusOK
		if err != nil {
			status = statusFor(err)
		}
		writeJSON(w, status, result)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "status": "pending"})
	}
}

// HealthCheck handles GET /health/live and GET /health/ready.
func (h *handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Health()

	code := http.StatusOK
	if status == aicore.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"backends": h.svc.Backends(),
	})
}

// MetricsSnapshot handles GET /v1/metrics: the JSON aggregate view.
// Prometheus exposition lives on its own endpoint.
func (h *handler) MetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": h.svc.MetricsSnapshot(),
		"cache":   h.svc.CacheStats(),
	})
}

func (h *handler) decodeTask(w http.ResponseWriter, r *http.Request) (*types.TaskRequest, bool) {
	var req types.TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	return &req, true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var te *taskerr.Error
	if !errors.As(err, &te) {
		return http.StatusInternalServerError
	}

	switch te.Type {
	case taskerr.TypeValidation:
		return http.StatusBadRequest
	case taskerr.TypeConfiguration:
		return http.StatusBadRequest
	case taskerr.TypeRateLimit, taskerr.TypeBackendRateLimit:
		return http.StatusTooManyRequests
	case taskerr.TypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
