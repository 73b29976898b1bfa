// Package openai implements the OpenAI chat-completion backend adapter.
// It serves as the reference implementation for other backend adapters.
package openai

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

// BackendName is the identifier for this backend.
const BackendName = "openai"

// Adapter implements the OpenAI API backend.
type Adapter struct {
	cfg backend.Config
}

// New creates a new OpenAI adapter instance.
func New(cfg backend.Config) (backend.Adapter, error) {
	return &Adapter{cfg: cfg}, nil
}

// Name returns the backend identifier.
func (a *Adapter) Name() string {
	return BackendName
}

// Kind returns the backend kind.
func (a *Adapter) Kind() types.BackendKind {
	return types.BackendOpenAI
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

// BuildRequest creates the HTTP request for the chat-completion endpoint:
// a system instruction selected by task type and the serialized payload as
// the user message.
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
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	return httpReq, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
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

	// Some gateways report API errors inside a 200 body.
	if parsed.Error != nil {
		return nil, taskerr.MapHTTPStatus(BackendName, resp.StatusCode, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	return adapter.SuccessResult(parsed.Choices[0].Message.Content, BackendName), nil
}

// MapError converts an OpenAI error response into a classified error,
// preferring the message embedded in the error envelope.
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
