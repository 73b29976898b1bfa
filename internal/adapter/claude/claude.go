// Package claude implements the Anthropic Messages API backend adapter.
// Unlike the OpenAI-compatible backends, the system instruction is a
// top-level field and authentication uses the x-api-key header.
package claude

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

const (
	// BackendName is the identifier for this backend.
	BackendName = "claude"

	// APIVersion is the Anthropic API version header value.
	APIVersion = "2023-06-01"
)

// Adapter implements the Anthropic Messages API backend.
type Adapter struct {
	cfg backend.Config
}

// New creates a new Claude adapter instance.
func New(cfg backend.Config) (backend.Adapter, error) {
	return &Adapter{cfg: cfg}, nil
}

// Name returns the backend identifier.
func (a *Adapter) Name() string {
	return BackendName
}

// Kind returns the backend kind.
func (a *Adapter) Kind() types.BackendKind {
	return types.BackendClaude
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// BuildRequest creates the HTTP request for the Messages API.
func (a *Adapter) BuildRequest(ctx context.Context, req *types.TaskRequest) (*http.Request, error) {
	content, err := adapter.UserContent(req)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(messagesRequest{
		Model:  a.cfg.Model,
		System: adapter.SystemInstruction(req.Type),
		Messages: []message{
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
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	return httpReq, nil
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// ParseResponse extracts the first text block from a 2xx response.
func (a *Adapter) ParseResponse(resp *http.Response) (*types.TaskResult, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" || block.Type == "" {
			return adapter.SuccessResult(block.Text, BackendName), nil
		}
	}
	return nil, fmt.Errorf("response contained no text content")
}

// MapError converts an Anthropic error response into a classified error.
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

	return taskerr.MapHTTPStatus(BackendName, statusCode, message)
}
