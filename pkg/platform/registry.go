// Platform adapter registry
package platform

import (
	"sort"
	"sync"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
)

// Registry holds the adapter instances the manager publishes through.
// One instance per platform, alive for the whole manager session.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Type]Adapter
	logger   logger.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.New()
	}
	return &Registry{
		adapters: make(map[Type]Adapter),
		logger:   log,
	}
}

// Register adds an adapter. Registering the same platform twice is an error.
func (r *Registry) Register(adapter Adapter) error {
	if adapter == nil {
		return errors.New(errors.ErrInvalidConfig, "cannot register a nil adapter")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := adapter.Platform()
	if _, exists := r.adapters[t]; exists {
		return errors.Newf(errors.ErrInvalidConfig, "platform %s already registered", t)
	}

	r.adapters[t] = adapter
	r.logger.Info("Platform adapter registered", "platform", t)
	return nil
}

// Get returns the adapter for t
func (r *Registry) Get(t Type) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, ok := r.adapters[t]
	return adapter, ok
}

// List returns the registered platforms in stable order
func (r *Registry) List() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// Close closes every adapter and empties the registry
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	merr := errors.NewMultiError()
	for t, adapter := range r.adapters {
		if err := adapter.Close(); err != nil {
			r.logger.Error("Failed to close platform adapter", "platform", t, "error", err)
			merr.Add(err)
		}
	}
	r.adapters = make(map[Type]Adapter)
	return merr.ErrorOrNil()
}
