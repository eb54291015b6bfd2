// Package strategy holds the closed set of strategy implementations the
// engine can run. Strategies are compiled in and selected by name; the
// engine never loads or executes user-supplied code.
package strategy

import (
	"sort"
	"sync"

	"github.com/keel-lab/keel-trading/internal/types"
	"github.com/keel-lab/keel-trading/internal/version"
	"github.com/keel-lab/keel-trading/pkg/errors"
)

// Strategy evaluates a window of bars and produces the action for the most
// recent bar. Implementations must be deterministic for a given config and
// bar window.
type Strategy interface {
	// Name returns the registry key for this strategy.
	Name() string
	// APIVersion returns the strategy API version the implementation was
	// built against. Checked against the engine version at registration.
	APIVersion() string
	// Initialize configures the strategy from an opaque YAML document.
	Initialize(config string) error
	// Evaluate inspects the bar window (oldest first) and returns the
	// action for the latest bar.
	Evaluate(bars []types.MarketData) (types.SignalType, error)
	// ConfigSchema returns the JSON schema of the strategy's config.
	ConfigSchema() (string, error)
}

// Factory creates a fresh strategy instance. Each deployment gets its own
// instance so per-deployment configuration never leaks.
type Factory func() Strategy

// Registry is the closed set of deployable strategies.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// NewDefaultRegistry creates a registry with all built-in strategies.
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()

	builtins := []Factory{
		func() Strategy { return NewSMACrossover() },
		func() Strategy { return NewRSIReversion() },
	}

	for _, factory := range builtins {
		if err := registry.Register(factory); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register adds a strategy factory, rejecting duplicate names and
// implementations built against an incompatible strategy API version.
func (r *Registry) Register(factory Factory) error {
	probe := factory()

	if err := version.CheckVersionCompatibility(version.GetVersion(), probe.APIVersion()); err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err,
			"strategy %s is not compatible with this engine", probe.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[probe.Name()]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %s is already registered", probe.Name())
	}

	r.factories[probe.Name()] = factory

	return nil
}

// Create returns a fresh, uninitialized instance of the named strategy.
func (r *Registry) Create(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %s is not registered", name)
	}

	return factory(), nil
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
