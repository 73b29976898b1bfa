package types

import (
	"github.com/goccy/go-json"
)

// TaskRequest is the unit of work submitted to the orchestration service.
// A request is treated as immutable once dispatched; the service and cache
// operate on deep copies and never alias the caller's payload map.
type TaskRequest struct {
	// Type selects the analysis the backend should perform.
	Type TaskType `json:"task_type"`

	// Payload is the structured input for the task, serialized verbatim
	// into the user message sent to the backend.
	Payload map[string]any `json:"payload"`

	// Context is optional free-text context appended to the task input.
	Context string `json:"context,omitempty"`

	// Backend names the backend configuration to dispatch to.
	Backend BackendKind `json:"backend"`
}

// Clone returns a deep copy of the request.
func (r *TaskRequest) Clone() *TaskRequest {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Payload = deepCopyMap(r.Payload)
	return &cp
}

// TaskResult is the outcome of a dispatched task. Ownership transfers to the
// caller; the cache keeps its own copy.
type TaskResult struct {
	// Success reports whether the backend call completed and parsed.
	Success bool `json:"success"`

	// Result holds the structured result payload. Present iff Success.
	Result map[string]any `json:"result,omitempty"`

	// Error holds the failure message. Present iff !Success.
	Error string `json:"error,omitempty"`

	// ConfidenceScore is the backend's confidence in [0.0, 1.0].
	ConfidenceScore float64 `json:"confidence_score"`

	// ProcessingTime is the wall-clock duration of the dispatch in
	// milliseconds. Zero for cache hits.
	ProcessingTime int64 `json:"processing_time_ms"`

	// CacheHit reports whether the result was served from the cache.
	CacheHit bool `json:"cache_hit,omitempty"`
}

// Clone returns a deep copy of the result so cache and caller never share
// mutable state.
func (r *TaskResult) Clone() *TaskResult {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Result = deepCopyMap(r.Result)
	return &cp
}

// deepCopyMap copies a JSON-shaped map via a marshal round trip. The payload
// trees handled here are always JSON-representable, so a failed round trip
// falls back to a shallow copy rather than silently dropping data.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		cp := make(map[string]any, len(m))
		for k, v := range m {
			cp[k] = v
		}
		return cp
	}
	var cp map[string]any
	if err := json.Unmarshal(raw, &cp); err != nil {
		cp = make(map[string]any, len(m))
		for k, v := range m {
			cp[k] = v
		}
	}
	return cp
}
