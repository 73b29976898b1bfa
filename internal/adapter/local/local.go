// Package local implements the adapter for self-hosted and custom backends
// exposing an OpenAI-compatible chat-completion endpoint (Ollama, vLLM,
// LM Studio, private gateways).
package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/scanforge/aicore/internal/adapter"
	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// Adapter implements an OpenAI-compatible backend at an arbitrary endpoint.
type Adapter struct {
	cfg  backend.Config
	kind types.BackendKind
}

// New creates an adapter for the local backend kind.
func New(cfg backend.Config) (backend.Adapter, error) {
	return &Adapter{cfg: cfg, kind: types.BackendLocal}, nil
}

// NewCustom creates an adapter for the custom backend kind. The wire format
// is identical; only the identifier differs.
func NewCustom(cfg backend.Config) (backend.Adapter, error) {
	return &Adapter{cfg: cfg, kind: types.BackendCustom}, nil
}

// Name returns the backend identifier.
func (a *Adapter) Name() string {
	return a.kind.String()
}

// Kind returns the backend kind.
func (a *Adapter) Kind() types.BackendKind {
	return a.kind
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// BuildRequest creates the HTTP request in OpenAI-compatible format.
// The Authorization header is only sent when a key is configured; many
// local model servers run without authentication.
func (a *Adapter) BuildRequest(ctx context.Context, req *types.TaskRequest) (*http.Request, error) {
	content, err := adapter.UserContent(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: adapter.SystemInstruction(req.Type)},
			{Role: "user", Content: content},
		},
		Temperature: adapter.Temperature,
		MaxTokens:   adapter.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	return httpReq, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseResponse extracts the completion content from a 2xx response.
func (a *Adapter) ParseResponse(resp *http.Response) (*types.TaskResult, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	return adapter.SuccessResult(parsed.Choices[0].Message.Content, a.Name()), nil
}

// MapError converts an error response into a classified error.
func (a *Adapter) MapError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := ""
	if err := json.Unmarshal(body, &errResp); err == nil {
		message = errResp.Error.Message
	}

	return taskerr.MapHTTPStatus(a.Name(), statusCode, message)
}
