// Package backend defines the public contract for AI backend adapters.
// Each backend (OpenAI, Claude, custom, local) implements the Adapter
// interface to translate task requests into provider wire calls.
package backend

import (
	"context"
	"net/http"

	"github.com/scanforge/aicore/pkg/types"
)

// Adapter is implemented once per external AI backend. The dispatcher owns
// the HTTP client, timing, and transport-error classification; adapters only
// build requests and interpret responses. Adapters never retry.
type Adapter interface {
	// Name returns the backend identifier used in logs, metrics, and
	// result payloads (e.g. "openai").
	Name() string

	// Kind returns the backend kind this adapter serves.
	Kind() types.BackendKind

	// BuildRequest transforms a task request into a provider-specific
	// HTTP request: a system instruction selected by task type, the
	// serialized payload as the user message, and model parameters.
	BuildRequest(ctx context.Context, req *types.TaskRequest) (*http.Request, error)

	// ParseResponse extracts the content string from a 2xx provider
	// response and wraps it in a successful TaskResult.
	ParseResponse(resp *http.Response) (*types.TaskResult, error)

	// MapError converts a non-2xx provider response into a classified
	// *taskerr.Error with dedicated handling for 401, 429, and 5xx.
	MapError(statusCode int, body []byte) error
}

// Factory creates adapter instances from a validated configuration.
type Factory func(cfg Config) (Adapter, error)
