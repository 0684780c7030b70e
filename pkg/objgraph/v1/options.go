package v1

import (
	"reflect"

	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

// NullHandling selects how a null-vs-non-null pair is treated during comparison.
type NullHandling string

const (
	// NullHandlingStrict treats a nil against any non-nil value as a difference.
	NullHandlingStrict NullHandling = "strict"
	// NullHandlingLoose treats a nil as equal to an "empty" non-nil value:
	// an empty string or an empty collection.
	NullHandlingLoose NullHandling = "loose"
)

// Default traversal bounds. Chosen large enough for real object graphs while
// still terminating on runaway inputs.
const (
	DefaultMaxDepth       = 64
	DefaultMaxObjectCount = 1_000_000
	DefaultFloatTolerance = 1e-9
)

// ItemComparer is a two-argument equality predicate over erased values,
// registered per collection element type. It is used only for unordered
// collection matching and carries no authority beyond the element pair.
type ItemComparer func(a, b interface{}) bool

// Options is the read-only configuration consumed by both the comparison and
// clone engines. It is immutable for the duration of one call once handed to
// an engine; concurrent calls that mutate a shared Options value elsewhere
// must pass distinct clones (see Clone).
type Options struct {
	// MaxDepth bounds traversal depth. Exceeding it is fatal to the call.
	MaxDepth int `yaml:"max_depth,omitempty"`
	// MaxObjectCount bounds the number of objects visited in one call.
	// Exceeding it is fatal to the call.
	MaxObjectCount int64 `yaml:"max_object_count,omitempty"`
	// DeepComparison enables recursive descent into composite members.
	// When false, members are compared shallowly via generic equality.
	DeepComparison bool `yaml:"deep_comparison"`
	// IgnoreCollectionOrder compares sequences as unordered multisets.
	IgnoreCollectionOrder bool `yaml:"ignore_collection_order,omitempty"`
	// ComparePrivateMembers includes unexported struct fields in comparison.
	// Unexported fields are never cloned (reflection cannot set them).
	ComparePrivateMembers bool `yaml:"compare_private_members,omitempty"`
	// CompareReadOnlyMembers includes members without a write accessor.
	CompareReadOnlyMembers bool `yaml:"compare_read_only_members,omitempty"`
	// NullHandling selects strict or loose nil handling.
	NullHandling NullHandling `yaml:"null_handling,omitempty"`
	// DecimalPrecision, when >= 0, rounds floating-point values to that many
	// decimal places before comparing. -1 disables rounding.
	DecimalPrecision int `yaml:"decimal_precision,omitempty"`
	// FloatTolerance is the tolerance applied to floating-point comparison.
	FloatTolerance float64 `yaml:"float_tolerance,omitempty"`
	// UseRelativeFloatTolerance scales FloatTolerance by the larger magnitude
	// of the two operands instead of applying it absolutely.
	UseRelativeFloatTolerance bool `yaml:"use_relative_float_tolerance,omitempty"`
	// ContinueOnFirstDifference keeps traversing after a difference is found,
	// accumulating every difference instead of stopping at the first.
	ContinueOnFirstDifference bool `yaml:"continue_on_first_difference"`
	// ExcludedMembers is a set of member names skipped during comparison and
	// cloning. Exclusion is per-operation, not per-type: the cached member
	// tables are never filtered, this set is consulted at traversal time.
	ExcludedMembers map[string]struct{} `yaml:"-"`
	// CustomComparers maps a concrete runtime type to an authoritative
	// comparer for nodes of that type.
	CustomComparers map[reflect.Type]plugin.Comparer `yaml:"-"`
	// CollectionItemComparers maps a collection element type to the equality
	// predicate used when matching unordered collection elements.
	CollectionItemComparers map[reflect.Type]ItemComparer `yaml:"-"`
}

// DefaultOptions returns the options used when a caller passes none:
// deep comparison, strict nil handling, ordered collections, default bounds.
func DefaultOptions() *Options {
	return &Options{
		MaxDepth:                  DefaultMaxDepth,
		MaxObjectCount:            DefaultMaxObjectCount,
		DeepComparison:            true,
		NullHandling:              NullHandlingStrict,
		DecimalPrecision:          -1,
		FloatTolerance:            DefaultFloatTolerance,
		ContinueOnFirstDifference: true,
	}
}

// Clone returns an independent copy of o. The comparer and predicate maps are
// copied shallowly; registered comparers themselves are expected to be
// stateless or internally synchronized.
func (o *Options) Clone() *Options {
	if o == nil {
		return DefaultOptions()
	}
	dup := *o
	if o.ExcludedMembers != nil {
		dup.ExcludedMembers = make(map[string]struct{}, len(o.ExcludedMembers))
		for k := range o.ExcludedMembers {
			dup.ExcludedMembers[k] = struct{}{}
		}
	}
	if o.CustomComparers != nil {
		dup.CustomComparers = make(map[reflect.Type]plugin.Comparer, len(o.CustomComparers))
		for k, v := range o.CustomComparers {
			dup.CustomComparers[k] = v
		}
	}
	if o.CollectionItemComparers != nil {
		dup.CollectionItemComparers = make(map[reflect.Type]ItemComparer, len(o.CollectionItemComparers))
		for k, v := range o.CollectionItemComparers {
			dup.CollectionItemComparers[k] = v
		}
	}
	return &dup
}

// Validate checks option values for internal consistency.
func (o *Options) Validate() error {
	if o.MaxDepth <= 0 {
		return objerrors.NewValidationError("max_depth must be positive", nil)
	}
	if o.MaxObjectCount <= 0 {
		return objerrors.NewValidationError("max_object_count must be positive", nil)
	}
	if o.FloatTolerance < 0 {
		return objerrors.NewValidationError("float_tolerance cannot be negative", nil)
	}
	if o.DecimalPrecision < -1 {
		return objerrors.NewValidationError("decimal_precision must be -1 (disabled) or non-negative", nil)
	}
	switch o.NullHandling {
	case NullHandlingStrict, NullHandlingLoose, "":
	default:
		return objerrors.NewValidationError("null_handling must be 'strict' or 'loose'", nil)
	}
	return nil
}

// IsExcluded reports whether the named member is excluded by this configuration.
func (o *Options) IsExcluded(member string) bool {
	if o.ExcludedMembers == nil {
		return false
	}
	_, excluded := o.ExcludedMembers[member]
	return excluded
}

// ComparerFor returns the custom comparer registered for t, if any.
func (o *Options) ComparerFor(t reflect.Type) (plugin.Comparer, bool) {
	if o.CustomComparers == nil {
		return nil, false
	}
	c, ok := o.CustomComparers[t]
	return c, ok
}

// ItemComparerFor returns the unordered item predicate for element type t, if any.
func (o *Options) ItemComparerFor(t reflect.Type) (ItemComparer, bool) {
	if o.CollectionItemComparers == nil {
		return nil, false
	}
	c, ok := o.CollectionItemComparers[t]
	return c, ok
}

// OptionsBuilder provides a fluent way to construct an Options value.
// It is an external convenience; the engines consume the built Options
// read-only and never retain the builder.
type OptionsBuilder struct {
	opts *Options
}

// NewOptionsBuilder starts a builder seeded with DefaultOptions.
func NewOptionsBuilder() *OptionsBuilder {
	return &OptionsBuilder{opts: DefaultOptions()}
}

func (b *OptionsBuilder) MaxDepth(depth int) *OptionsBuilder {
	b.opts.MaxDepth = depth
	return b
}

func (b *OptionsBuilder) MaxObjectCount(count int64) *OptionsBuilder {
	b.opts.MaxObjectCount = count
	return b
}

func (b *OptionsBuilder) DeepComparison(enabled bool) *OptionsBuilder {
	b.opts.DeepComparison = enabled
	return b
}

func (b *OptionsBuilder) IgnoreCollectionOrder(ignore bool) *OptionsBuilder {
	b.opts.IgnoreCollectionOrder = ignore
	return b
}

func (b *OptionsBuilder) ComparePrivateMembers(include bool) *OptionsBuilder {
	b.opts.ComparePrivateMembers = include
	return b
}

func (b *OptionsBuilder) CompareReadOnlyMembers(include bool) *OptionsBuilder {
	b.opts.CompareReadOnlyMembers = include
	return b
}

func (b *OptionsBuilder) NullHandling(mode NullHandling) *OptionsBuilder {
	b.opts.NullHandling = mode
	return b
}

func (b *OptionsBuilder) DecimalPrecision(places int) *OptionsBuilder {
	b.opts.DecimalPrecision = places
	return b
}

func (b *OptionsBuilder) FloatTolerance(tolerance float64, relative bool) *OptionsBuilder {
	b.opts.FloatTolerance = tolerance
	b.opts.UseRelativeFloatTolerance = relative
	return b
}

func (b *OptionsBuilder) ContinueOnFirstDifference(cont bool) *OptionsBuilder {
	b.opts.ContinueOnFirstDifference = cont
	return b
}

func (b *OptionsBuilder) ExcludeMember(name string) *OptionsBuilder {
	if b.opts.ExcludedMembers == nil {
		b.opts.ExcludedMembers = make(map[string]struct{})
	}
	b.opts.ExcludedMembers[name] = struct{}{}
	return b
}

// RegisterComparer registers an authoritative comparer for the concrete type
// of prototype. Passing a nil prototype is a programming error and panics.
func (b *OptionsBuilder) RegisterComparer(prototype interface{}, comparer plugin.Comparer) *OptionsBuilder {
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic("objgraph: RegisterComparer requires a non-nil prototype value")
	}
	if b.opts.CustomComparers == nil {
		b.opts.CustomComparers = make(map[reflect.Type]plugin.Comparer)
	}
	b.opts.CustomComparers[t] = comparer
	return b
}

// RegisterItemComparer registers an unordered-matching predicate for the
// concrete element type of prototype.
func (b *OptionsBuilder) RegisterItemComparer(prototype interface{}, cmp ItemComparer) *OptionsBuilder {
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic("objgraph: RegisterItemComparer requires a non-nil prototype value")
	}
	if b.opts.CollectionItemComparers == nil {
		b.opts.CollectionItemComparers = make(map[reflect.Type]ItemComparer)
	}
	b.opts.CollectionItemComparers[t] = cmp
	return b
}

// Build validates and returns the constructed Options.
func (b *OptionsBuilder) Build() (*Options, error) {
	if err := b.opts.Validate(); err != nil {
		return nil, err
	}
	return b.opts.Clone(), nil
}
