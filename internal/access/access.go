// Package access enumerates the comparable and cloneable members of composite
// types. Member tables are computed once per type and cached process-wide;
// per-operation filtering (exclusions, read-only and private member flags)
// happens at traversal time so the cache stays configuration-independent.
package access

import (
	"fmt"
	"reflect"
	"sync"

	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
)

// TagName is the struct tag consulted for member directives.
// `objgraph:"-"` excludes a member unconditionally; `objgraph:"readonly"`
// marks a member as having no write accessor, so it is compared only when
// the configuration allows read-only members and is never populated by the
// clone engine.
const TagName = "objgraph"

// Member describes one field of a composite type.
type Member struct {
	// Name is the field name as it appears in paths.
	Name string
	// Index is the field's positional index within the struct.
	Index int
	// Type is the field's declared type.
	Type reflect.Type
	// Exported reports whether the field is exported. Unexported members are
	// listed separately and consulted only when private comparison is enabled.
	Exported bool
	// ReadOnly reports the `objgraph:"readonly"` directive: the member has no
	// write accessor from the engine's perspective.
	ReadOnly bool
}

// TypeMembers is the cached member table of one composite type.
type TypeMembers struct {
	// Exported members, in declaration order.
	Exported []Member
	// Unexported members, in declaration order.
	Unexported []Member
}

var memberCache sync.Map // reflect.Type -> *TypeMembers

// MembersOf returns the cached member table for struct type t.
// Non-struct types yield an empty table: a conservative "composite with zero
// comparable members" rather than an error.
func MembersOf(t reflect.Type) *TypeMembers {
	if t == nil || t.Kind() != reflect.Struct {
		return &TypeMembers{}
	}
	if cached, ok := memberCache.Load(t); ok {
		return cached.(*TypeMembers)
	}
	tm := buildMembers(t)
	actual, _ := memberCache.LoadOrStore(t, tm)
	return actual.(*TypeMembers)
}

func buildMembers(t reflect.Type) *TypeMembers {
	tm := &TypeMembers{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(TagName)
		if tag == "-" {
			continue
		}
		m := Member{
			Name:     f.Name,
			Index:    i,
			Type:     f.Type,
			Exported: f.IsExported(),
			ReadOnly: tag == "readonly",
		}
		if m.Exported {
			tm.Exported = append(tm.Exported, m)
		} else {
			tm.Unexported = append(tm.Unexported, m)
		}
	}
	return tm
}

// Get reads the member's value from structVal. The returned value may not be
// interfaceable when the member is unexported; callers compare such values
// through reflect accessors instead of boxing them.
func Get(structVal reflect.Value, m Member) (reflect.Value, error) {
	if structVal.Kind() != reflect.Struct {
		return reflect.Value{}, objerrors.NewMemberAccessError(
			typeName(structVal), m.Name, fmt.Errorf("value of kind %s is not a struct", structVal.Kind()))
	}
	if m.Index >= structVal.NumField() {
		return reflect.Value{}, objerrors.NewMemberAccessError(
			typeName(structVal), m.Name, fmt.Errorf("member index %d out of range", m.Index))
	}
	return structVal.Field(m.Index), nil
}

// Set writes v into the member's slot on structVal. An invalid (nil) v against
// a non-nillable slot is tolerated by substituting the slot's zero value
// rather than failing; a partially populated target beats an aborted clone.
func Set(structVal reflect.Value, m Member, v reflect.Value) error {
	if structVal.Kind() != reflect.Struct {
		return objerrors.NewMemberAccessError(
			typeName(structVal), m.Name, fmt.Errorf("value of kind %s is not a struct", structVal.Kind()))
	}
	slot := structVal.Field(m.Index)
	if !slot.CanSet() {
		return objerrors.NewMemberAccessError(
			typeName(structVal), m.Name, fmt.Errorf("member is not settable"))
	}
	if !v.IsValid() {
		slot.Set(reflect.Zero(slot.Type()))
		return nil
	}
	if !v.Type().AssignableTo(slot.Type()) {
		return objerrors.NewMemberAccessError(
			typeName(structVal), m.Name,
			fmt.Errorf("value of type %s is not assignable to member of type %s", v.Type(), slot.Type()))
	}
	slot.Set(v)
	return nil
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "<invalid>"
	}
	return v.Type().String()
}

// ClearCache drops all cached member tables. Administrative use only.
func ClearCache() {
	memberCache.Range(func(key, _ interface{}) bool {
		memberCache.Delete(key)
		return true
	})
}
