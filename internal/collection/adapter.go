// Package collection classifies runtime collection types and provides element
// iteration plus compatible-collection construction for the clone engine.
// Both engines materialize collections into ordered element sequences here so
// they get stable random access regardless of the source container.
package collection

import (
	"reflect"
	"sort"
)

// Shape is the structural category of a collection type.
type Shape int

const (
	// ShapeSequence is a slice: variable-length, ordered.
	ShapeSequence Shape = iota
	// ShapeArray is a fixed-length ordered array.
	ShapeArray
	// ShapeMap is a keyed collection.
	ShapeMap
	// ShapeSet is a map with empty-struct values, the conventional Go set.
	ShapeSet
)

func (s Shape) String() string {
	switch s {
	case ShapeSequence:
		return "sequence"
	case ShapeArray:
		return "array"
	case ShapeMap:
		return "map"
	case ShapeSet:
		return "set"
	default:
		return "unknown"
	}
}

var emptyStructType = reflect.TypeOf(struct{}{})

// ClassifyShape returns the shape of collection type t. The boolean is false
// when t is not a collection type at all.
func ClassifyShape(t reflect.Type) (Shape, bool) {
	if t == nil {
		return 0, false
	}
	switch t.Kind() {
	case reflect.Slice:
		return ShapeSequence, true
	case reflect.Array:
		return ShapeArray, true
	case reflect.Map:
		if t.Elem() == emptyStructType {
			return ShapeSet, true
		}
		return ShapeMap, true
	default:
		return 0, false
	}
}

// Elements materializes v into an ordered sequence of element values.
// Slices and arrays yield elements in index order. Sets yield their keys in
// the map's iteration order; set comparison is unordered anyway, so the order
// only needs to be stable for the duration of one materialization.
func Elements(v reflect.Value) []reflect.Value {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]reflect.Value, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = v.Index(i)
		}
		return out
	case reflect.Map:
		out := make([]reflect.Value, 0, v.Len())
		for it := v.MapRange(); it.Next(); {
			out = append(out, it.Key())
		}
		return out
	default:
		return nil
	}
}

// Entry is one key/value pair of a map collection.
type Entry struct {
	Key   reflect.Value
	Value reflect.Value
}

// Entries materializes a map into key/value pairs. Keys with a defined order
// (strings, integers, floats) are sorted so that paths and difference output
// are deterministic across runs; other key types keep iteration order.
func Entries(v reflect.Value) []Entry {
	if !v.IsValid() || v.Kind() != reflect.Map {
		return nil
	}
	out := make([]Entry, 0, v.Len())
	for it := v.MapRange(); it.Next(); {
		out = append(out, Entry{Key: it.Key(), Value: it.Value()})
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []Entry) {
	if len(entries) < 2 {
		return
	}
	switch entries[0].Key.Kind() {
	case reflect.String:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Key.String() < entries[j].Key.String()
		})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Key.Int() < entries[j].Key.Int()
		})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Key.Uint() < entries[j].Key.Uint()
		})
	case reflect.Float32, reflect.Float64:
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Key.Float() < entries[j].Key.Float()
		})
	}
}

// NewCompatible allocates an empty collection compatible with the original
// concrete type t, sized for capacity elements. Arrays come back as a settable
// value of the exact array type; slices and maps preserve the original
// concrete (possibly named) type, so rebuilding into the original type needs
// no separate conversion step.
func NewCompatible(t reflect.Type, capacity int) reflect.Value {
	switch t.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(t, capacity, capacity)
	case reflect.Map:
		return reflect.MakeMapWithSize(t, capacity)
	case reflect.Array:
		return reflect.New(t).Elem()
	default:
		// Not a collection; a zero value is the safe degenerate answer.
		return reflect.New(t).Elem()
	}
}
