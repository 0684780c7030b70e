package compare

import (
	"fmt"
	"reflect"

	"github.com/objgraph-labs/objgraph/internal/classify"
)

// compareUnordered compares two equal-length element sequences as multisets.
// Strategy selection, in priority order: a registered per-element-type item
// comparer, a frequency count for hashable leaf elements, and finally greedy
// first-match structural pairing. Greedy matching is intentionally not a
// minimum-cost assignment; it is O(n^2) worst case and can report a
// non-minimal difference set on pathological inputs, which is an accepted
// tradeoff for predictable cost.
func (c *Comparison) compareUnordered(left, right []reflect.Value, elemType reflect.Type, path string, depth int) error {
	if len(left) == 0 {
		return nil
	}

	if itemCmp, ok := c.opts.ItemComparerFor(elemType); ok {
		return c.greedyMatch(left, right, path, func(l, r reflect.Value) (bool, error) {
			if !l.CanInterface() || !r.CanInterface() {
				return shallowEqual(l, r), nil
			}
			return itemCmp(l.Interface(), r.Interface()), nil
		})
	}

	if leafHashable(left) && leafHashable(right) {
		c.frequencyMatch(left, right, path)
		return nil
	}

	return c.greedyMatch(left, right, path, func(l, r reflect.Value) (bool, error) {
		return c.equalPair(l, r, path, depth)
	})
}

// leafHashable reports whether every element resolves to a boxable leaf value,
// making a map-keyed frequency count valid for the whole sequence. Dynamic
// sequences ([]interface{}) are judged per element.
func leafHashable(elems []reflect.Value) bool {
	for _, e := range elems {
		v := unwrapInterface(e)
		if !v.IsValid() {
			continue // nil elements count under a shared nil key
		}
		if classify.Classify(v.Type()).Kind != classify.KindLeaf {
			return false
		}
		if !v.CanInterface() || !v.Type().Comparable() {
			return false
		}
	}
	return true
}

// frequencyMatch compares two leaf multisets by occurrence counting. This is
// exact equality per element; tolerance-based float matching does not compose
// with hashing and falls under greedy matching via an item comparer instead.
func (c *Comparison) frequencyMatch(left, right []reflect.Value, path string) {
	counts := make(map[interface{}]int, len(left))
	for _, e := range left {
		counts[freqKey(e)]++
	}
	for _, e := range right {
		counts[freqKey(e)]--
	}
	for key, n := range counts {
		if n > 0 {
			c.diff(path, fmt.Sprintf("element %v occurs %d more time(s) on the left", key, n))
		} else if n < 0 {
			c.diff(path, fmt.Sprintf("element %v occurs %d more time(s) on the right", key, -n))
		}
	}
}

// freqKey boxes a leaf element for frequency counting. All nil elements share
// one sentinel key regardless of static type.
func freqKey(e reflect.Value) interface{} {
	v := unwrapInterface(e)
	if !v.IsValid() {
		return nilFreqKey{}
	}
	return v.Interface()
}

type nilFreqKey struct{}

func (nilFreqKey) String() string { return "<nil>" }

// greedyMatch pairs each left element with the first unmatched right element
// the predicate accepts. Lengths are equal on entry, so every unmatched left
// element implies an unmatched right element; one difference is recorded per
// unmatched left element.
func (c *Comparison) greedyMatch(left, right []reflect.Value, path string, equal func(l, r reflect.Value) (bool, error)) error {
	matched := make([]bool, len(right))
	for i, l := range left {
		found := false
		for j, r := range right {
			if matched[j] {
				continue
			}
			ok, err := equal(l, r)
			if err != nil {
				return err
			}
			if ok {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			c.diff(indexPath(path, i), fmt.Sprintf("no matching element found for %s", formatValue(l)))
			if !c.opts.ContinueOnFirstDifference {
				return nil
			}
		}
	}
	return nil
}
