// Package compare implements the structural deep-comparison engine. The
// traversal is iterative: unresolved sub-member and sub-element work is pushed
// onto an explicit LIFO work stack instead of the call stack, which keeps
// depth limits deterministic and avoids stack overflow on deep graphs.
//
// Sibling ordering is deterministic only locally: within one composite the
// members are pushed in enumeration order and within one ordered collection
// the elements are pushed in index order, but the global interleaving across
// branches follows stack discipline and must not be relied upon. Only the
// final aggregated differences list and AreEqual flag are meaningful.
package compare

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
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"
)

// workItem is one pending pair comparison. Items are pushed when a composite
// member or collection element needs recursive comparison, popped and
// processed exactly once, and never mutated after push.
type workItem struct {
	left  reflect.Value
	right reflect.Value
	path  string
	depth int
}

// Comparison is one in-flight top-level compare call. It owns its result,
// tracker, and work stack exclusively; none of them may be shared across
// calls or goroutines. Drive it either with Run (drain to completion) or
// with repeated Step calls (batch processing for the async wrapper).
type Comparison struct {
	opts    *v1.Options
	result  *v1.ComparisonResult
	tracker *track.CompareTracker
	stack   []workItem
	log     objlog.Logger
	started time.Time

	// count is shared with nested trial comparisons spawned by unordered
	// matching so the object-count bound covers the whole call.
	count *int64

	done bool
	err  error
}

// New prepares a comparison of left against right. A nil opts falls back to
// defaults. The logger is used only for non-fatal diagnostics and may not be
// nil; callers without one pass a no-op implementation.
func New(left, right interface{}, opts *v1.Options, log objlog.Logger) *Comparison {
	if opts == nil {
		opts = v1.DefaultOptions()
	}
	if log == nil {
		panic("compare.New requires a non-nil logger")
	}
	c := &Comparison{
		opts:    opts,
		result:  v1.NewComparisonResult(),
		tracker: track.NewCompareTracker(),
		log:     log,
		started: time.Now(),
		count:   new(int64),
	}
	c.stack = append(c.stack, workItem{
		left:  reflect.ValueOf(left),
		right: reflect.ValueOf(right),
	})
	return c
}

// Result returns the result accumulated so far. It is only safe to read once
// the comparison reports done.
func (c *Comparison) Result() *v1.ComparisonResult { return c.result }

// Run drains the work stack to completion and returns the final result.
// Structural differences are never returned as errors; the error is non-nil
// only for limit violations and unrecoverable per-object failures.
func (c *Comparison) Run() (*v1.ComparisonResult, error) {
	for !c.done {
		if _, err := c.Step(defaultStepSize); err != nil {
			return c.result, err
		}
	}
	return c.result, c.err
}

const defaultStepSize = 256

// Step processes up to n work items and reports whether the comparison has
// completed. The async wrapper calls Step in batches, checking cancellation
// and deadlines between calls; the core itself never suspends mid-item.
func (c *Comparison) Step(n int) (bool, error) {
	if c.done {
		return true, c.err
	}
	for i := 0; i < n; i++ {
		if len(c.stack) == 0 {
			c.finish(nil)
			return true, c.err
		}
		item := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]

		if err := c.processItem(item); err != nil {
			c.finish(err)
			return true, c.err
		}
		if !c.result.AreEqual && !c.opts.ContinueOnFirstDifference {
			c.finish(nil)
			return true, c.err
		}
	}
	return false, nil
}

func (c *Comparison) finish(err error) {
	c.done = true
	c.err = err
	c.result.ObjectsCompared = *c.count
	c.result.ComparisonTime = time.Since(c.started)
}

func (c *Comparison) push(it workItem) {
	c.stack = append(c.stack, it)
}

func (c *Comparison) diff(path, message string) {
	c.result.RecordDifference(path, message)
}

// processItem runs the per-item state machine. Panics raised while processing
// one item (custom equality methods, hostile accessors) are wrapped with the
// item's path and surfaced as a fatal ComparisonError; the two limit signals
// pass through unchanged.
func (c *Comparison) processItem(it workItem) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = objerrors.NewComparisonError(it.path, fmt.Errorf("panic while comparing: %v", r))
		}
	}()

	c.result.ObserveDepth(it.depth)

	left := unwrapInterface(it.left)
	right := unwrapInterface(it.right)

	// Null and identity resolution.
	leftNil, rightNil := isNilValue(left), isNilValue(right)
	if leftNil && rightNil {
		return nil
	}
	if leftNil != rightNil {
		nonNil := left
		if leftNil {
			nonNil = right
		}
		if c.opts.NullHandling == v1.NullHandlingLoose && isEmptyValue(nonNil) {
			return nil
		}
		c.diff(it.path, nilMismatchMessage(leftNil, nonNil))
		return nil
	}
	if sameReference(left, right) {
		return nil
	}

	// Limit enforcement. Both are fatal for the whole call, not just this
	// item: continuing past a configured safety bound would defeat it.
	if it.depth >= c.opts.MaxDepth {
		return objerrors.NewMaxDepthExceededError(it.path, c.opts.MaxDepth)
	}
	*c.count++
	if *c.count > c.opts.MaxObjectCount {
		return objerrors.NewMaxObjectCountExceededError(it.path, c.opts.MaxObjectCount)
	}

	if left.Type() != right.Type() {
		c.diff(it.path, fmt.Sprintf("type mismatch: %s vs %s", left.Type(), right.Type()))
		return nil
	}

	// Cycle detection: a recurring identity pair is treated as equal without
	// re-descending, for genuine cycles and diamonds alike.
	if !c.tracker.TryMark(left, right) {
		return nil
	}

	// A registered custom comparer is authoritative for this node.
	if cmp, ok := c.opts.ComparerFor(left.Type()); ok && left.CanInterface() && right.CanInterface() {
		equal, cmpErr := cmp.AreEqual(left.Interface(), right.Interface())
		if cmpErr != nil {
			return objerrors.NewComparisonError(it.path, cmpErr)
		}
		if !equal {
			c.diff(it.path, "custom comparer reported values unequal")
		}
		return nil
	}

	desc := classify.Classify(left.Type())
	switch desc.Kind {
	case classify.KindNullable:
		// Both sides are non-nil pointers here; dereferencing does not
		// descend a member, so depth is carried unchanged. Pointer cycles
		// terminate through the tracker mark above.
		c.push(workItem{left: left.Elem(), right: right.Elem(), path: it.path, depth: it.depth})
		return nil
	case classify.KindLeaf:
		c.compareLeaf(left, right, desc, it.path)
		return nil
	case classify.KindCollection:
		return c.compareCollection(left, right, it.path, it.depth)
	case classify.KindComposite:
		return c.compareComposite(left, right, it.path, it.depth)
	default:
		// Unreachable; classification is total. Treated as equal rather than
		// failing deep inside a traversal.
		c.log.Warnf("unclassifiable type %s at '%s', treating as equal", left.Type(), it.path)
		return nil
	}
}

// compareComposite fetches both sides of every included member and pushes a
// work item per member in enumeration order. Member read failures are fatal
// during comparison: equality cannot be determined without the value.
func (c *Comparison) compareComposite(left, right reflect.Value, path string, depth int) error {
	members := access.MembersOf(left.Type())
	if err := c.compareMembers(left, right, members.Exported, path, depth); err != nil {
		return err
	}
	if c.opts.ComparePrivateMembers {
		if err := c.compareMembers(left, right, members.Unexported, path, depth); err != nil {
			return err
		}
	}
	return nil
}

func (c *Comparison) compareMembers(left, right reflect.Value, members []access.Member, path string, depth int) error {
	for _, m := range members {
		if c.opts.IsExcluded(m.Name) {
			continue
		}
		if m.ReadOnly && !c.opts.CompareReadOnlyMembers {
			continue
		}
		lv, err := access.Get(left, m)
		if err != nil {
			return objerrors.NewComparisonError(path, err)
		}
		rv, err := access.Get(right, m)
		if err != nil {
			return objerrors.NewComparisonError(path, err)
		}
		memberPath := joinPath(path, m.Name)
		if c.opts.DeepComparison {
			c.push(workItem{left: lv, right: rv, path: memberPath, depth: depth + 1})
		} else if !shallowEqual(lv, rv) {
			c.diff(memberPath, fmt.Sprintf("values differ: %s != %s", formatValue(lv), formatValue(rv)))
		}
	}
	return nil
}

// compareCollection materializes both sides and dispatches per shape.
// A length mismatch is recorded as a single difference and ends the
// collection's comparison; no element alignment is attempted on mismatched
// lengths.
func (c *Comparison) compareCollection(left, right reflect.Value, path string, depth int) error {
	shape, ok := collection.ClassifyShape(left.Type())
	if !ok {
		c.log.Warnf("type %s classified as collection but has no shape, treating as equal", left.Type())
		return nil
	}

	if left.Len() != right.Len() {
		c.diff(path, fmt.Sprintf("collection length mismatch: %d vs %d", left.Len(), right.Len()))
		return nil
	}

	switch shape {
	case collection.ShapeMap:
		return c.compareMap(left, right, path, depth)
	case collection.ShapeSet:
		// Sets carry no order; their keys are compared as an unordered multiset.
		return c.compareUnordered(collection.Elements(left), collection.Elements(right), left.Type().Key(), path, depth)
	default: // ShapeSequence, ShapeArray
		leftElems := collection.Elements(left)
		rightElems := collection.Elements(right)
		if c.opts.IgnoreCollectionOrder {
			return c.compareUnordered(leftElems, rightElems, left.Type().Elem(), path, depth)
		}
		for i := range leftElems {
			c.push(workItem{
				left:  leftElems[i],
				right: rightElems[i],
				path:  indexPath(path, i),
				depth: depth + 1,
			})
		}
		return nil
	}
}

// compareMap aligns entries by key. Lengths are already known equal, so a key
// present on the left but absent on the right is sufficient to prove the key
// sets differ; no reverse sweep is needed.
func (c *Comparison) compareMap(left, right reflect.Value, path string, depth int) error {
	for _, entry := range collection.Entries(left) {
		rv := right.MapIndex(entry.Key)
		entryPath := keyPath(path, entry.Key)
		if !rv.IsValid() {
			c.diff(entryPath, "key missing from right side")
			continue
		}
		c.push(workItem{left: entry.Value, right: rv, path: entryPath, depth: depth + 1})
	}
	return nil
}

// equalPair runs a nested, self-contained comparison for one candidate pair
// during unordered matching. The trial gets a fresh tracker and a throwaway
// result so speculative matches cannot poison the outer call's cycle state,
// but shares the outer object counter so MaxObjectCount bounds total work.
func (c *Comparison) equalPair(left, right reflect.Value, path string, depth int) (bool, error) {
	sub := &Comparison{
		opts:    c.opts,
		result:  v1.NewComparisonResult(),
		tracker: track.NewCompareTracker(),
		log:     c.log,
		started: time.Now(),
		count:   c.count,
	}
	sub.stack = append(sub.stack, workItem{left: left, right: right, path: path, depth: depth})
	if _, err := sub.Run(); err != nil {
		return false, err
	}
	return sub.result.AreEqual, nil
}
