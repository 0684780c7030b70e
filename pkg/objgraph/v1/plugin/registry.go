package plugin

// Comparer is the contract for a custom per-type comparison strategy.
// When a comparer is registered for a runtime type, the comparison engine
// delegates that node to it entirely: the boolean result is authoritative
// and the engine does not descend into the node afterwards.
type Comparer interface {
	// AreEqual reports whether a and b are equal. Both values are guaranteed
	// to be non-nil and of the registered runtime type. A non-nil error is
	// treated as fatal by the engine: comparison correctness cannot be
	// assumed once a trusted comparer fails.
	AreEqual(a, b interface{}) (bool, error)
}

// ComparerFunc adapts an ordinary function to the Comparer interface.
type ComparerFunc func(a, b interface{}) (bool, error)

// AreEqual implements Comparer.
func (f ComparerFunc) AreEqual(a, b interface{}) (bool, error) { return f(a, b) }

// ComparerFactory is a function type that creates new instances of a specific
// Comparer. Factories receive the raw parameter map from the profile that
// referenced them (tolerances, flags, etc.); implementations should validate
// the parameters they use and ignore none silently.
type ComparerFactory func(params map[string]interface{}) (Comparer, error)

// Registry defines the public interface for the comparer registry.
// It provides a mechanism for registering and retrieving comparer factories
// by name, so comparison profiles (which are data, not code) can reference
// comparers symbolically.
type Registry interface {
	// Get retrieves the factory function for a given comparer name.
	// It returns a ComparerNotFoundError if the name is not registered.
	Get(name string) (ComparerFactory, error)

	// Register associates a comparer name with its factory function.
	// This must be concurrency-safe. It returns an error if the name is
	// empty, the factory is nil, or the name is already registered.
	Register(name string, factory ComparerFactory) error

	// List returns a slice containing the names of all registered comparers.
	// The order of names in the returned slice is not guaranteed.
	List() []string
}
