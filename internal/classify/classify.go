// Package classify inspects runtime types and caches a descriptor per type:
// leaf value, nullable wrapper, collection, or composite. Classification is
// pure and total; every type maps to exactly one kind, and reclassifying the
// same type always yields an equivalent descriptor, which is what makes the
// process-wide cache safe.
package classify

import (
	"reflect"
	"sync"
	"time"
)

// Kind is the coarse classification a traversal engine dispatches on.
type Kind int

const (
	// KindLeaf marks a primitive-like value treated as atomic: numerics,
	// booleans, strings, time.Time, time.Duration, enums (named integer
	// kinds), and anything compared by identity (funcs, channels).
	KindLeaf Kind = iota
	// KindNullable marks a pointer or interface wrapper around an inner value.
	KindNullable
	// KindCollection marks slices, arrays, and maps.
	KindCollection
	// KindComposite marks a struct with members to recurse into.
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindNullable:
		return "nullable"
	case KindCollection:
		return "collection"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Descriptor is the cached classification of one runtime type.
type Descriptor struct {
	// Type is the classified type. Nil only for the degenerate descriptor
	// returned when classifying a nil type.
	Type reflect.Type
	// Kind is the traversal classification.
	Kind Kind
	// Elem describes the inner type for nullable wrappers and the element
	// type for collections. Nil when the inner type is not statically known
	// (interface wrappers, whose contents are classified at traversal time).
	Elem *Descriptor
	// Key describes the key type for map collections; nil otherwise.
	Key *Descriptor
	// HasCustomEqual reports whether the type declares a strongly-typed
	// self-equality method, Equal(T) bool, detected on the value or pointer
	// receiver. Engines must prefer it over generic value comparison.
	HasCustomEqual bool

	equalMethod reflect.Method
	equalOnPtr  bool
}

var (
	timeType = reflect.TypeOf(time.Time{})

	// descriptorCache is process-wide, insert-only from the caller's
	// perspective, and safe to share across concurrent calls. Duplicate
	// inserts under contention produce equivalent descriptors, so
	// LoadOrStore semantics are sufficient.
	descriptorCache sync.Map // reflect.Type -> *Descriptor
)

// nilDescriptor is the conservative fallback for a nil runtime type.
var nilDescriptor = &Descriptor{Kind: KindLeaf}

// Classify returns the cached descriptor for t, computing and caching it on
// first use. Classification never fails: unrecognized shapes degrade to the
// most conservative safe kind rather than erroring, because classification
// happens deep inside a traversal where aborting loses all partial results.
func Classify(t reflect.Type) *Descriptor {
	if t == nil {
		return nilDescriptor
	}
	if cached, ok := descriptorCache.Load(t); ok {
		return cached.(*Descriptor)
	}
	// Build with a per-call memo so self-referential types (e.g. type S []S)
	// terminate. The memo's descriptors are equivalent to any concurrently
	// built ones, so publishing with LoadOrStore keeps the cache consistent.
	memo := make(map[reflect.Type]*Descriptor)
	d := build(t, memo)
	for mt, md := range memo {
		descriptorCache.LoadOrStore(mt, md)
	}
	canonical, _ := descriptorCache.Load(t)
	if canonical != nil {
		return canonical.(*Descriptor)
	}
	return d
}

// ClassifyValue classifies the runtime type of v, tolerating invalid values.
func ClassifyValue(v reflect.Value) *Descriptor {
	if !v.IsValid() {
		return nilDescriptor
	}
	return Classify(v.Type())
}

func build(t reflect.Type, memo map[reflect.Type]*Descriptor) *Descriptor {
	if t == nil {
		return nilDescriptor
	}
	if d, ok := memo[t]; ok {
		return d
	}
	d := &Descriptor{Type: t}
	// Registered before children are classified so recursive shapes bottom out.
	memo[t] = d

	detectCustomEqual(t, d)

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		d.Kind = KindLeaf
	case reflect.Ptr:
		d.Kind = KindNullable
		d.Elem = build(t.Elem(), memo)
	case reflect.Interface:
		// The inner type of an interface is only known at traversal time.
		d.Kind = KindNullable
	case reflect.Slice, reflect.Array:
		d.Kind = KindCollection
		d.Elem = build(t.Elem(), memo)
	case reflect.Map:
		d.Kind = KindCollection
		d.Key = build(t.Key(), memo)
		d.Elem = build(t.Elem(), memo)
	case reflect.Struct:
		if t == timeType {
			// time.Time is pinned as an immutable pass-through leaf with its
			// own Equal method; descending into its unexported fields would
			// compare wall/monotonic clock internals.
			d.Kind = KindLeaf
		} else {
			d.Kind = KindComposite
		}
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// Compared by identity, never descended into.
		d.Kind = KindLeaf
	default:
		d.Kind = KindLeaf
	}
	return d
}

// detectCustomEqual captures a strongly-typed self-equality method:
// func (t T) Equal(T) bool, accepted on either the value or pointer receiver.
// time.Time.Equal is the canonical example.
func detectCustomEqual(t reflect.Type, d *Descriptor) {
	if m, ok := t.MethodByName("Equal"); ok && isEqualMethod(m.Type, t) {
		d.HasCustomEqual = true
		d.equalMethod = m
		return
	}
	if t.Kind() != reflect.Ptr {
		pt := reflect.PointerTo(t)
		if m, ok := pt.MethodByName("Equal"); ok && isEqualMethod(m.Type, t) {
			d.HasCustomEqual = true
			d.equalMethod = m
			d.equalOnPtr = true
		}
	}
}

// isEqualMethod reports whether mt is a method func(receiver, T) bool or
// func(receiver, *T) bool for the classified type T.
func isEqualMethod(mt reflect.Type, t reflect.Type) bool {
	if mt.NumIn() != 2 || mt.NumOut() != 1 {
		return false
	}
	if mt.Out(0).Kind() != reflect.Bool {
		return false
	}
	arg := mt.In(1)
	return arg == t || arg == reflect.PointerTo(t)
}

// CallEqual invokes the type's Equal method on a and b. The second return
// value is false when no custom equality is declared or the values cannot be
// used for a method call (e.g. values read from unexported fields), in which
// case the caller falls back to generic comparison.
func (d *Descriptor) CallEqual(a, b reflect.Value) (equal bool, ok bool) {
	if !d.HasCustomEqual || !a.CanInterface() || !b.CanInterface() {
		return false, false
	}
	recv := a
	if d.equalOnPtr {
		if !a.CanAddr() {
			// Make an addressable copy to take the pointer receiver.
			tmp := reflect.New(a.Type())
			tmp.Elem().Set(a)
			recv = tmp
		} else {
			recv = a.Addr()
		}
	}
	arg := b
	if d.equalMethod.Type.In(1).Kind() == reflect.Ptr && b.Kind() != reflect.Ptr {
		tmp := reflect.New(b.Type())
		tmp.Elem().Set(b)
		arg = tmp
	}
	out := d.equalMethod.Func.Call([]reflect.Value{recv, arg})
	return out[0].Bool(), true
}

// ClearCache drops all cached descriptors. It exists for explicit
// administrative use only; the cache is otherwise insert-only.
func ClearCache() {
	descriptorCache.Range(func(key, _ interface{}) bool {
		descriptorCache.Delete(key)
		return true
	})
}
