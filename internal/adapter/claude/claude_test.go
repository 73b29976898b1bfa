package claude

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

func testConfig() backend.Config {
	return backend.NewConfig(types.BackendClaude, "sk-ant-REDACTED")
}

func TestAdapter_BuildRequest(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := &types.TaskRequest{
		Type:    types.TaskThreatModeling,
		Payload: map[string]any{"service": "auth-api"},
		Context: "exposed to the public internet",
		Backend: types.BackendClaude,
	}

	httpReq, err := a.BuildRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	if got := httpReq.Header.Get("x-api-key"); got != "sk-ant-REDACTED" {
		t.Errorf("x-api-key = %q", got)
	}
	if got := httpReq.Header.Get("anthropic-version"); got != APIVersion {
		t.Errorf("anthropic-version = %q, want %q", got, APIVersion)
	}

	body, _ := io.ReadAll(httpReq.Body)
	var parsed struct {
		System   string `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}

	if !strings.Contains(parsed.System, "threat modeling") {
		t.Errorf("system field should match task type, got %q", parsed.System)
	}
	if len(parsed.Messages) != 1 || parsed.Messages[0].Role != "user" {
		t.Fatalf("want a single user message, got %+v", parsed.Messages)
	}
	if !strings.Contains(parsed.Messages[0].Content, "auth-api") {
		t.Errorf("user message should carry the payload")
	}
	if !strings.Contains(parsed.Messages[0].Content, "public internet") {
		t.Errorf("user message should carry the free-text context")
	}
}

func TestAdapter_ParseResponse(t *testing.T) {
	a, _ := New(testConfig())

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body: io.NopCloser(strings.NewReader(
			`{"content": [{"type": "text", "text": "Threat summary."}]}`)),
	}

	result, err := a.ParseResponse(resp)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if result.Result["content"] != "Threat summary." {
		t.Errorf("content = %v", result.Result["content"])
	}
	if result.Result["provider"] != BackendName {
		t.Errorf("provider = %v, want %s", result.Result["provider"], BackendName)
	}
}

func TestAdapter_MapError(t *testing.T) {
	a, _ := New(testConfig())

	err := a.MapError(401, []byte(`{"error": {"message": "invalid x-api-key"}}`))

	var terr *taskerr.Error
	if !errors.As(err, &terr) {
		t.Fatalf("MapError() returned %T, want *taskerr.Error", err)
	}
	if terr.Type != taskerr.TypeBackendAuth {
		t.Errorf("type = %s, want %s", terr.Type, taskerr.TypeBackendAuth)
	}
	if !strings.Contains(terr.Message, "invalid x-api-key") {
		t.Errorf("message should carry backend detail, got %q", terr.Message)
	}
}
