// Package comparers provides the registry through which comparison profiles
// reference custom comparers by name. Built-in comparer packages self-register
// into the global registry from their init() functions.
package comparers

import (
	"fmt"
	"sync"

	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

// StaticRegistry implements the plugin.Registry interface using a compile-time
// map. It provides thread-safe registration and retrieval of comparer
// factories. This is the default registry implementation used if no other
// registry is provided.
type StaticRegistry struct {
	// factories maps the registered comparer name to its factory function.
	factories map[string]plugin.ComparerFactory
	// mu provides read/write locking to ensure thread-safe access to the factories map.
	mu sync.RWMutex
}

// NewStaticRegistry creates a new, empty static registry.
// Comparers must be registered using the Register method before they can be retrieved.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		factories: make(map[string]plugin.ComparerFactory),
	}
}

// Register associates a comparer name with its factory function.
// This function is typically called from the init() function of a comparer
// package or explicitly by the application wiring the registry. It enforces
// that names and factories are valid and prevents duplicate registrations.
func (r *StaticRegistry) Register(name string, factory plugin.ComparerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return objerrors.NewConfigError("comparer registration error: name cannot be empty", nil)
	}
	if factory == nil {
		return objerrors.NewConfigError(fmt.Sprintf("comparer registration error for '%s': factory cannot be nil", name), nil)
	}
	if _, exists := r.factories[name]; exists {
		return objerrors.NewConfigError(fmt.Sprintf("comparer registration error: duplicate comparer name '%s'", name), nil)
	}

	r.factories[name] = factory
	return nil
}

// Get retrieves the factory function for a given comparer name.
// If the name is not registered, it returns nil and a ComparerNotFoundError.
func (r *StaticRegistry) Get(name string) (plugin.ComparerFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, objerrors.NewComparerNotFoundError(name)
	}
	return factory, nil
}

// List returns a slice containing the names of all registered comparers.
// The order of names in the returned slice is not guaranteed.
func (r *StaticRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// --- Default Global Registry (for compile-time registration via init) ---

var (
	// globalRegistry holds the default registry instance used for package-level
	// registration via the global Register function.
	globalRegistry = NewStaticRegistry()
	// Compile-time check that StaticRegistry implements the public
	// plugin.Registry interface. This fails the build if the implementation drifts.
	_ plugin.Registry = (*StaticRegistry)(nil)
)

// Register globally associates a comparer name with its factory function in
// the default global registry instance. This is the intended mechanism for
// built-in comparers to self-register during program initialization via their
// init() functions. It panics on registration errors (e.g., duplicate name)
// because init() functions run early, and such errors indicate a programming
// mistake that must be fixed.
func Register(name string, factory plugin.ComparerFactory) {
	if err := globalRegistry.Register(name, factory); err != nil {
		panic(fmt.Errorf("failed to register comparer '%s' globally: %w", name, err))
	}
}

// DefaultStaticRegistryGetter provides convenient access to the global static
// registry instance, exposed as the public plugin.Registry interface type.
var DefaultStaticRegistryGetter plugin.Registry = globalRegistry
