// Package config loads and validates comparison profiles: YAML documents that
// describe comparison options and symbolic comparer bindings, so comparison
// behavior can ship as data alongside the graphs it applies to.
package config

import (
	"fmt"
	"reflect"
	"sync"

	v1 "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

// Profile represents the top-level structure of a comparison profile YAML file.
type Profile struct {
	Name          string         `yaml:"name"`
	SchemaVersion string         `yaml:"schemaVersion"`
	Options       ProfileOptions `yaml:"options,omitempty"`
	// Comparers binds named, registered comparers to concrete types.
	Comparers []ComparerBinding `yaml:"comparers,omitempty"`
	// FilePath is an internal field for storing the source file path for
	// context in logging and error messages. It is not parsed from the YAML.
	FilePath string `yaml:"-"`
}

// ProfileOptions mirrors the engine Options in YAML form. Booleans whose
// engine default is true are pointers so an absent key keeps the default
// rather than silently flipping it off.
type ProfileOptions struct {
	MaxDepth                  int      `yaml:"max_depth,omitempty"`
	MaxObjectCount            int64    `yaml:"max_object_count,omitempty"`
	DeepComparison            *bool    `yaml:"deep_comparison,omitempty"`
	IgnoreCollectionOrder     bool     `yaml:"ignore_collection_order,omitempty"`
	ComparePrivateMembers     bool     `yaml:"compare_private_members,omitempty"`
	CompareReadOnlyMembers    bool     `yaml:"compare_read_only_members,omitempty"`
	NullHandling              string   `yaml:"null_handling,omitempty"`
	DecimalPrecision          *int     `yaml:"decimal_precision,omitempty"`
	FloatTolerance            *float64 `yaml:"float_tolerance,omitempty"`
	UseRelativeFloatTolerance bool     `yaml:"use_relative_float_tolerance,omitempty"`
	ContinueOnFirstDifference *bool    `yaml:"continue_on_first_difference,omitempty"`
	ExcludedMembers           []string `yaml:"excluded_members,omitempty"`
}

// ComparerBinding references a registered comparer by name and binds it to a
// concrete type by its registered type name.
type ComparerBinding struct {
	// Type is the type name as registered in the TypeTable, e.g. "time.Time".
	Type string `yaml:"type"`
	// Comparer is the registered comparer name, e.g. "foldcase".
	Comparer string `yaml:"comparer"`
	// Params is passed verbatim to the comparer factory.
	Params map[string]interface{} `yaml:"params,omitempty"`
}

// TypeTable resolves the type names a profile may reference to concrete
// runtime types. Profiles are data; they cannot name Go types directly, so
// the embedding application registers the types it wants bindable.
type TypeTable struct {
	types map[string]reflect.Type
	mu    sync.RWMutex
}

// NewTypeTable creates an empty table.
func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[string]reflect.Type)}
}

// RegisterType makes prototype's concrete type bindable under its canonical
// name (reflect.Type.String()). A nil prototype is a programming error.
func (t *TypeTable) RegisterType(prototype interface{}) string {
	rt := reflect.TypeOf(prototype)
	if rt == nil {
		panic("config: RegisterType requires a non-nil prototype value")
	}
	name := rt.String()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types[name] = rt
	return name
}

// Lookup resolves a registered type name.
func (t *TypeTable) Lookup(name string) (reflect.Type, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rt, ok := t.types[name]
	return rt, ok
}

// BuildOptions materializes engine Options from the profile: scalar options
// are overlaid onto DefaultOptions, and each comparer binding is resolved
// through the registry and the type table.
func (p *Profile) BuildOptions(registry plugin.Registry, types *TypeTable) (*v1.Options, error) {
	opts := v1.DefaultOptions()

	po := p.Options
	if po.MaxDepth > 0 {
		opts.MaxDepth = po.MaxDepth
	}
	if po.MaxObjectCount > 0 {
		opts.MaxObjectCount = po.MaxObjectCount
	}
	if po.DeepComparison != nil {
		opts.DeepComparison = *po.DeepComparison
	}
	opts.IgnoreCollectionOrder = po.IgnoreCollectionOrder
	opts.ComparePrivateMembers = po.ComparePrivateMembers
	opts.CompareReadOnlyMembers = po.CompareReadOnlyMembers
	if po.NullHandling != "" {
		opts.NullHandling = v1.NullHandling(po.NullHandling)
	}
	if po.DecimalPrecision != nil {
		opts.DecimalPrecision = *po.DecimalPrecision
	}
	if po.FloatTolerance != nil {
		opts.FloatTolerance = *po.FloatTolerance
	}
	opts.UseRelativeFloatTolerance = po.UseRelativeFloatTolerance
	if po.ContinueOnFirstDifference != nil {
		opts.ContinueOnFirstDifference = *po.ContinueOnFirstDifference
	}
	if len(po.ExcludedMembers) > 0 {
		opts.ExcludedMembers = make(map[string]struct{}, len(po.ExcludedMembers))
		for _, m := range po.ExcludedMembers {
			opts.ExcludedMembers[m] = struct{}{}
		}
	}

	for _, binding := range p.Comparers {
		if registry == nil {
			return nil, objerrors.NewConfigError("profile declares comparers but no registry was provided", nil)
		}
		if types == nil {
			return nil, objerrors.NewConfigError("profile declares comparers but no type table was provided", nil)
		}
		rt, ok := types.Lookup(binding.Type)
		if !ok {
			return nil, objerrors.NewValidationError(
				fmt.Sprintf("profile '%s' binds comparer '%s' to unregistered type '%s'", p.Name, binding.Comparer, binding.Type), nil)
		}
		factory, err := registry.Get(binding.Comparer)
		if err != nil {
			return nil, err
		}
		cmp, err := factory(binding.Params)
		if err != nil {
			return nil, objerrors.NewConfigError(
				fmt.Sprintf("comparer '%s' rejected its parameters", binding.Comparer), err)
		}
		if opts.CustomComparers == nil {
			opts.CustomComparers = make(map[reflect.Type]plugin.Comparer)
		}
		opts.CustomComparers[rt] = cmp
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
