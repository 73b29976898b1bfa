package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/goccy/go-json"

	"github.com/scanforge/aicore/pkg/types"
)

// keyPrefix namespaces orchestration cache keys.
const keyPrefix = "task"

// Key derives the content fingerprint for a request: a SHA-256 hash over the
// task type, the canonical serialization of the payload, and the context.
// JSON marshaling emits map keys in sorted order, so two payloads with
// identical logical content hash identically regardless of field ordering.
//
// The backend identity is deliberately not part of the key: a result cached
// from one backend serves identical requests routed to another.
func Key(taskType types.TaskType, payload map[string]any, context string) string {
	var sb strings.Builder
	sb.WriteString("type:")
	sb.WriteString(taskType.String())

	if raw, err := json.Marshal(payload); err == nil {
		sb.WriteString("|payload:")
		sb.Write(raw)
	}
	if context != "" {
		sb.WriteString("|context:")
		sb.WriteString(context)
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return keyPrefix + ":" + hex.EncodeToString(sum[:])
}

// RequestKey derives the fingerprint directly from a task request.
func RequestKey(req *types.TaskRequest) string {
	return Key(req.Type, req.Payload, req.Context)
}
