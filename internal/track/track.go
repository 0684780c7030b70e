// Package track provides the per-operation identity trackers both traversal
// engines use to detect cycles. Identity is reference identity (the pointer
// word of a pointer, map, or slice), never value equality: cycles are about
// aliasing, and two distinct objects that happen to be value-equal must be
// tracked separately.
//
// A tracker belongs to exactly one top-level Compare or Clone invocation and
// is never reused across calls; stale entries would produce false
// "already equal" or "already cloned" results.
package track

import "reflect"

// refKey is the identity of one referenced object. Slices carry their length
// alongside the backing-array pointer because two slices over one array
// (s[0:1] and s[0:2]) share a pointer yet are distinct objects; every other
// kind uses -1.
type refKey struct {
	ptr    uintptr
	length int
}

// pairKey identifies a (left, right) identity pair of one runtime type.
// The type is part of the key so identical addresses of unrelated types
// (e.g. a struct and its first field) cannot collide.
type pairKey struct {
	left, right refKey
	t           reflect.Type
}

// CompareTracker records object-identity pairs already being compared in the
// current call.
type CompareTracker struct {
	seen map[pairKey]struct{}
}

// NewCompareTracker returns an empty tracker for one Compare call.
func NewCompareTracker() *CompareTracker {
	return &CompareTracker{seen: make(map[pairKey]struct{})}
}

// TryMark marks the identity pair (left, right). It returns true the first
// time a pair is seen (proceed with descent) and false on recurrence anywhere
// else in the graph, whether a genuine cycle or a diamond; the engine treats
// a recurring pair as already equal and does not re-descend. That is a
// deliberate soundness tradeoff: the pair's equality is being established by
// the traversal that first marked it.
//
// Values without reference identity (structs, scalars) are never marked and
// always return true.
func (t *CompareTracker) TryMark(left, right reflect.Value) bool {
	lid, ok := identityOf(left)
	if !ok {
		return true
	}
	rid, ok := identityOf(right)
	if !ok {
		return true
	}
	key := pairKey{left: lid, right: rid, t: left.Type()}
	if _, dup := t.seen[key]; dup {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Len reports the number of marked pairs, for diagnostics and tests.
func (t *CompareTracker) Len() int { return len(t.seen) }

// CloneTracker maps source object identities to their already-created clones.
type CloneTracker struct {
	clones map[refKey]reflect.Value
}

// NewCloneTracker returns an empty tracker for one Clone call.
func NewCloneTracker() *CloneTracker {
	return &CloneTracker{clones: make(map[refKey]reflect.Value)}
}

// Existing returns the clone registered for src's identity, if any.
func (t *CloneTracker) Existing(src reflect.Value) (reflect.Value, bool) {
	id, ok := identityOf(src)
	if !ok {
		return reflect.Value{}, false
	}
	clone, found := t.clones[id]
	return clone, found
}

// Register associates src's identity with its clone. The clone engine must
// call this with the new, still-empty instance before recursing into the
// source's members; registering after population would make a
// self-referencing object recurse forever.
func (t *CloneTracker) Register(src, clone reflect.Value) {
	if id, ok := identityOf(src); ok {
		t.clones[id] = clone
	}
}

// Len reports the number of registered clones, for diagnostics and tests.
func (t *CloneTracker) Len() int { return len(t.clones) }

// identityOf returns the reference identity of v for tracking purposes.
// Only pointer-like kinds participate in cycles; everything else reports no
// identity. Nil references report no identity: nil can never alias.
func identityOf(v reflect.Value) (refKey, bool) {
	if !v.IsValid() {
		return refKey{}, false
	}
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return refKey{}, false
		}
		return refKey{ptr: v.Pointer(), length: v.Len()}, true
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return refKey{}, false
		}
		return refKey{ptr: v.Pointer(), length: -1}, true
	default:
		return refKey{}, false
	}
}
