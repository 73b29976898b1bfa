// Package adapters provides a centralized registry of all built-in backend
// adapters.
package adapters

import (
	"github.com/scanforge/aicore/internal/adapter/claude"
	"github.com/scanforge/aicore/internal/adapter/local"
	"github.com/scanforge/aicore/internal/adapter/openai"
	"github.com/scanforge/aicore/pkg/backend"
	"github.com/scanforge/aicore/pkg/types"
)

// Factories maps each backend kind to its adapter factory.
var Factories = map[types.BackendKind]backend.Factory{
	types.BackendOpenAI: openai.New,
	types.BackendClaude: claude.New,
	types.BackendCustom: local.NewCustom,
	types.BackendLocal:  local.New,
}

// RegisterAll registers every built-in factory with the given registry.
func RegisterAll(registry *backend.Registry) {
	for kind, factory := range Factories {
		registry.RegisterFactory(kind, factory)
	}
}
