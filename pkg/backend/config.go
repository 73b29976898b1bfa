package backend

import (
	"strings"
	"time"

	"github.com/scanforge/aicore/pkg/taskerr"
	"github.com/scanforge/aicore/pkg/types"
)

// DefaultTimeout is applied when a configuration does not set one.
const DefaultTimeout = 30 * time.Second

// Config holds the validated connection parameters for one backend instance.
type Config struct {
	Kind     types.BackendKind `json:"kind" yaml:"kind"`
	APIKey   string            `json:"-" yaml:"api_key"` // Never serialize
	Endpoint string            `json:"endpoint" yaml:"endpoint"`
	Model    string            `json:"model" yaml:"model"`
	Timeout  time.Duration     `json:"timeout" yaml:"timeout"`
	Enabled  bool              `json:"enabled" yaml:"enabled"`
}

// NewConfig returns a configuration with per-kind default endpoint, model,
// and timeout filled in.
func NewConfig(kind types.BackendKind, apiKey string) Config {
	cfg := Config{
		Kind:    kind,
		APIKey:  apiKey,
		Timeout: DefaultTimeout,
		Enabled: true,
	}

	switch kind {
	case types.BackendOpenAI:
		cfg.Endpoint = "https://api.openai.com/v1/chat/completions"
		cfg.Model = "gpt-4"
	case types.BackendClaude:
		cfg.Endpoint = "https://api.anthropic.com/v1/messages"
		cfg.Model = "claude-3-sonnet-20240229"
	case types.BackendCustom, types.BackendLocal:
		cfg.Endpoint = "http://localhost:8080/v1/chat/completions"
		cfg.Model = "local-model"
	}

	return cfg
}

// Validate checks the configuration against the backend-specific rules.
// A config that fails validation is rejected at registration time; the
// dispatch path assumes every stored config already passed.
func (c Config) Validate() error {
	name := c.Kind.String()

	if !c.Kind.Valid() {
		return taskerr.NewConfigurationError(name, "unknown backend kind")
	}
	if !ValidateAPIKey(c.Kind, c.APIKey) {
		return taskerr.NewConfigurationError(name, "invalid API key format")
	}
	if !ValidateEndpoint(c.Endpoint) {
		return taskerr.NewConfigurationError(name, "invalid endpoint URL")
	}
	if c.Model == "" {
		return taskerr.NewConfigurationError(name, "model must not be empty")
	}
	if c.Timeout <= 0 {
		return taskerr.NewConfigurationError(name, "timeout must be positive")
	}
	return nil
}

// ValidateAPIKey checks the key shape expected by each backend. Hosted
// backends have known prefixes; custom and local endpoints only require a
// non-empty key.
func ValidateAPIKey(kind types.BackendKind, apiKey string) bool {
	if apiKey == "" {
		return false
	}

	switch kind {
	case types.BackendOpenAI:
		return strings.HasPrefix(apiKey, "sk-") && len(apiKey) > 10
	case types.BackendClaude:
		return strings.HasPrefix(apiKey, "sk-ant-") && len(apiKey) > 20
	case types.BackendCustom, types.BackendLocal:
		return true
	default:
		return false
	}
}

// ValidateEndpoint accepts HTTPS endpoints and plaintext loopback endpoints
// for local model servers.
func ValidateEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	return strings.HasPrefix(endpoint, "https://") ||
		strings.HasPrefix(endpoint, "http://localhost") ||
		strings.HasPrefix(endpoint, "http://127.0.0.1")
}
