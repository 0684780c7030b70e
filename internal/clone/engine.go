// Package clone implements the deep-copy engine behind snapshots. Like the
// comparison engine it traverses iteratively over an explicit work stack, but
// clone work has an extra shape: container population that must happen after
// the contained subtrees are fully built (map insertion, interface boxing) is
// queued as a deferred commit item pushed before its children, so stack
// discipline pops the commit only once the whole subtree has been processed.
package clone

import (
	"fmt"
	"reflect"
	"time"

	"github.com/objgraph-labs/objgraph/internal/access"
	"github.com/objgraph-labs/objgraph/internal/classify"
	"github.com/objgraph-labs/objgraph/internal/collection"
	"github.com/objgraph-labs/objgraph/internal/track"
	v1 "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/events"
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"
)

// memberScope is the failure domain of one composite member. Cloning is
// lenient per member: when any item inside a member's subtree fails for a
// non-limit reason, the member's slot is zeroed, the scope is marked failed so
// the subtree's remaining queued items are discarded, and the clone continues
// with the next member.
type memberScope struct {
	slot     reflect.Value
	path     string
	typeName string
	failed   bool
}

// cloneItem is one unit of clone work. Either src/dst describe a value to
// copy into a settable slot, or commit holds deferred container population.
type cloneItem struct {
	src    reflect.Value
	dst    reflect.Value
	path   string
	depth  int
	scope  *memberScope
	commit func() error
}

// Cloning is one in-flight snapshot call. Same ownership rules as a
// Comparison: single caller, never reused.
type Cloning struct {
	opts    *v1.Options
	tracker *track.CloneTracker
	stack   []cloneItem
	log     objlog.Logger
	bus     events.Bus
	started time.Time

	root     reflect.Value
	valid    bool
	count    int64
	failures int64

	done bool
	err  error
}

// New prepares a deep clone of value. A nil value completes immediately with
// a nil result. The bus may be nil when no observer is attached.
func New(value interface{}, opts *v1.Options, log objlog.Logger, bus events.Bus) *Cloning {
	if opts == nil {
		opts = v1.DefaultOptions()
	}
	if log == nil {
		panic("clone.New requires a non-nil logger")
	}
	c := &Cloning{
		opts:    opts,
		tracker: track.NewCloneTracker(),
		log:     log,
		bus:     bus,
		started: time.Now(),
	}
	src := reflect.ValueOf(value)
	if !src.IsValid() {
		c.done = true
		return c
	}
	c.root = reflect.New(src.Type()).Elem()
	c.valid = true
	c.stack = append(c.stack, cloneItem{src: src, dst: c.root})
	return c
}

// Value returns the cloned graph. Only meaningful once the clone is done.
func (c *Cloning) Value() interface{} {
	if !c.valid {
		return nil
	}
	return c.root.Interface()
}

// ObjectsCloned reports how many objects the clone has processed so far.
func (c *Cloning) ObjectsCloned() int64 { return c.count }

// MemberFailures reports how many members were zeroed after a scoped failure.
func (c *Cloning) MemberFailures() int64 { return c.failures }

// Run drains the work stack and returns the cloned graph. Per-member failures
// have already been degraded to zero values by the time Run returns; the
// error is non-nil only for limit violations and unscoped failures.
func (c *Cloning) Run() (interface{}, error) {
	for !c.done {
		if _, err := c.Step(defaultStepSize); err != nil {
			return nil, err
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.Value(), nil
}

const defaultStepSize = 256

// Step processes up to n work items and reports whether the clone completed.
func (c *Cloning) Step(n int) (bool, error) {
	if c.done {
		return true, c.err
	}
	for i := 0; i < n; i++ {
		if len(c.stack) == 0 {
			c.done = true
			return true, c.err
		}
		item := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]

		if item.scope != nil && item.scope.failed {
			continue
		}
		if err := c.processItem(item); err != nil {
			// Limit violations abort the whole clone regardless of scope; a
			// bounded operation that keeps going past its bound is worse than
			// a failed one. Everything else degrades to a zeroed member when
			// a member scope encloses the failure.
			if item.scope == nil || objerrors.IsLimitExceeded(err) {
				c.done = true
				c.err = err
				return true, c.err
			}
			c.failScope(item.scope, err)
		}
	}
	return false, nil
}

func (c *Cloning) push(it cloneItem) {
	c.stack = append(c.stack, it)
}

func (c *Cloning) failScope(s *memberScope, err error) {
	s.failed = true
	c.failures++
	if s.slot.IsValid() && s.slot.CanSet() {
		s.slot.Set(reflect.Zero(s.slot.Type()))
	}
	c.log.Warnf("cloning member '%s' failed, substituting zero value: %v", s.path, err)
	if c.bus != nil {
		c.bus.Emit(events.Event{
			Type:      events.MemberCloneFailed,
			Timestamp: time.Now(),
			Path:      s.path,
			TypeName:  s.typeName,
			Payload:   map[string]interface{}{"error": err.Error()},
		})
	}
}

func (c *Cloning) processItem(it cloneItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = objerrors.NewCloneError(srcTypeName(it.src), fmt.Errorf("panic while cloning at '%s': %v", it.path, r))
		}
	}()

	if it.commit != nil {
		return it.commit()
	}

	src := it.src
	if !src.IsValid() {
		return nil
	}

	// Interface slots box a typed temporary once its subtree is complete.
	if src.Kind() == reflect.Interface {
		if src.IsNil() {
			return nil
		}
		dynamic := src.Elem()
		tmp := reflect.New(dynamic.Type()).Elem()
		dst := it.dst
		c.push(cloneItem{
			path:  it.path,
			scope: it.scope,
			commit: func() error {
				dst.Set(tmp)
				return nil
			},
		})
		c.push(cloneItem{src: dynamic, dst: tmp, path: it.path, depth: it.depth, scope: it.scope})
		return nil
	}

	// Nil references clone to nil: the destination slot is already zero.
	if isNilRef(src) {
		return nil
	}

	if it.depth >= c.opts.MaxDepth {
		return objerrors.NewMaxDepthExceededError(it.path, c.opts.MaxDepth)
	}
	c.count++
	if c.count > c.opts.MaxObjectCount {
		return objerrors.NewMaxObjectCountExceededError(it.path, c.opts.MaxObjectCount)
	}

	// Aliasing preservation: an object already cloned once is reused, so two
	// references to one source object become two references to one clone.
	if existing, ok := c.tracker.Existing(src); ok {
		if existing.Type().AssignableTo(it.dst.Type()) {
			it.dst.Set(existing)
			return nil
		}
	}

	desc := classify.Classify(src.Type())
	switch desc.Kind {
	case classify.KindLeaf:
		// Leaves pass through by value. Reference-identity leaves (funcs,
		// channels) share the reference with the source on purpose.
		it.dst.Set(src)
		return nil
	case classify.KindNullable:
		return c.clonePointer(src, it)
	case classify.KindCollection:
		return c.cloneCollection(src, it)
	case classify.KindComposite:
		return c.cloneComposite(src, it)
	default:
		it.dst.Set(src)
		return nil
	}
}

// clonePointer allocates the target object and registers it with the tracker
// before its contents are cloned, so self-referencing objects terminate.
func (c *Cloning) clonePointer(src reflect.Value, it cloneItem) error {
	p := reflect.New(src.Type().Elem())
	c.tracker.Register(src, p)
	it.dst.Set(p)
	c.push(cloneItem{src: src.Elem(), dst: p.Elem(), path: it.path, depth: it.depth, scope: it.scope})
	return nil
}

func (c *Cloning) cloneCollection(src reflect.Value, it cloneItem) error {
	shape, ok := collection.ClassifyShape(src.Type())
	if !ok {
		return objerrors.NewCloneError(src.Type().String(), fmt.Errorf("collection at '%s' has no recognizable shape", it.path))
	}

	switch shape {
	case collection.ShapeSequence:
		ns := collection.NewCompatible(src.Type(), src.Len())
		c.tracker.Register(src, ns)
		it.dst.Set(ns)
		for i := 0; i < src.Len(); i++ {
			c.push(cloneItem{
				src:   src.Index(i),
				dst:   ns.Index(i),
				path:  fmt.Sprintf("%s[%d]", it.path, i),
				depth: it.depth + 1,
				scope: it.scope,
			})
		}
		return nil
	case collection.ShapeArray:
		// Arrays are values: the destination slot already is the new array.
		for i := 0; i < src.Len(); i++ {
			c.push(cloneItem{
				src:   src.Index(i),
				dst:   it.dst.Index(i),
				path:  fmt.Sprintf("%s[%d]", it.path, i),
				depth: it.depth + 1,
				scope: it.scope,
			})
		}
		return nil
	default: // ShapeMap, ShapeSet
		return c.cloneMap(src, it)
	}
}

// cloneMap builds each entry in typed temporaries and inserts them with a
// deferred commit. The commit is pushed first, so it pops only after both the
// key and value subtrees have been fully cloned.
func (c *Cloning) cloneMap(src reflect.Value, it cloneItem) error {
	nm := collection.NewCompatible(src.Type(), src.Len())
	c.tracker.Register(src, nm)
	it.dst.Set(nm)

	keyType := src.Type().Key()
	elemType := src.Type().Elem()
	for iter := src.MapRange(); iter.Next(); {
		entryPath := fmt.Sprintf("%s[%v]", it.path, iter.Key())
		kt := reflect.New(keyType).Elem()
		vt := reflect.New(elemType).Elem()
		c.push(cloneItem{
			path:  entryPath,
			scope: it.scope,
			commit: func() error {
				nm.SetMapIndex(kt, vt)
				return nil
			},
		})
		c.push(cloneItem{src: iter.Value(), dst: vt, path: entryPath, depth: it.depth + 1, scope: it.scope})
		c.push(cloneItem{src: iter.Key(), dst: kt, path: entryPath, depth: it.depth + 1, scope: it.scope})
	}
	return nil
}

// cloneComposite queues one scoped work item per writable exported member.
// Excluded and read-only members are never populated, and unexported members
// are never cloned; a snapshot reproduces the writable public surface.
func (c *Cloning) cloneComposite(src reflect.Value, it cloneItem) error {
	members := access.MembersOf(src.Type())
	for _, m := range members.Exported {
		if c.opts.IsExcluded(m.Name) || m.ReadOnly {
			continue
		}
		sv, err := access.Get(src, m)
		if err != nil {
			return err
		}
		memberPath := joinPath(it.path, m.Name)
		scope := &memberScope{
			slot:     it.dst.Field(m.Index),
			path:     memberPath,
			typeName: src.Type().String(),
		}
		c.push(cloneItem{
			src:   sv,
			dst:   scope.slot,
			path:  memberPath,
			depth: it.depth + 1,
			scope: scope,
		})
	}
	return nil
}

func isNilRef(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

func srcTypeName(v reflect.Value) string {
	if !v.IsValid() {
		return "<nil>"
	}
	return v.Type().String()
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
