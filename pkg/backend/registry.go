package backend

import (
	"fmt"
	"sync"

	"github.com/scanforge/aicore/pkg/types"
)

// Registry manages adapter factories and instances keyed by backend kind.
// Adding a backend means registering a factory, not editing a switch.
type Registry struct {
	mu        sync.RWMutex
	factories map[types.BackendKind]Factory
	adapters  map[types.BackendKind]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[types.BackendKind]Factory),
		adapters:  make(map[types.BackendKind]Adapter),
	}
}

// RegisterFactory registers a factory for a backend kind. Called during
// initialization for every supported backend.
func (r *Registry) RegisterFactory(kind types.BackendKind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// CreateAdapter validates the configuration and instantiates the adapter
// through the registered factory.
func (r *Registry) CreateAdapter(cfg Config) (Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, ok := r.factories[cfg.Kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no adapter factory for backend %s", cfg.Kind)
	}

	adapter, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create adapter %s: %w", cfg.Kind, err)
	}

	r.mu.Lock()
	r.adapters[cfg.Kind] = adapter
	r.mu.Unlock()

	return adapter, nil
}

// GetAdapter returns the adapter instance for a backend kind.
func (r *Registry) GetAdapter(kind types.BackendKind) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	return a, ok
}

// Kinds returns the kinds with an instantiated adapter.
func (r *Registry) Kinds() []types.BackendKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]types.BackendKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	return kinds
}
