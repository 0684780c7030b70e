// Package timeapprox provides a time.Time comparer with a configurable
// tolerance window. Two instants are equal when they lie within the window,
// regardless of location: 12:00:00.000 UTC equals 13:00:00.3+01:00 at a
// one-second tolerance.
package timeapprox

import (
	"fmt"
	"time"

	"github.com/objgraph-labs/objgraph/internal/comparers"
	"github.com/objgraph-labs/objgraph/internal/paramutil"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

// The init function self-registers the comparer with the global default registry.
func init() {
	comparers.Register("timeapprox", NewTimeApproxComparer)
}

// TimeApproxComparer compares two time.Time values within a tolerance window.
type TimeApproxComparer struct {
	tolerance time.Duration
}

// NewTimeApproxComparer is the factory function for TimeApproxComparer.
// Recognized params: tolerance (Go duration string, e.g. "500ms").
// The default tolerance is zero, i.e. exact instant equality.
func NewTimeApproxComparer(params map[string]interface{}) (plugin.Comparer, error) {
	if err := paramutil.CheckAllowed(params, []string{"tolerance"}); err != nil {
		return nil, err
	}
	c := &TimeApproxComparer{}
	s, found, err := paramutil.GetOptionalString(params, "tolerance")
	if err != nil {
		return nil, err
	}
	if found {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("timeapprox: invalid 'tolerance' value '%s': %w", s, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("timeapprox: 'tolerance' cannot be negative")
		}
		c.tolerance = d
	}
	return c, nil
}

// AreEqual implements plugin.Comparer.
func (c *TimeApproxComparer) AreEqual(a, b interface{}) (bool, error) {
	ta, ok := a.(time.Time)
	if !ok {
		return false, fmt.Errorf("timeapprox: expected time.Time, got %T", a)
	}
	tb, ok := b.(time.Time)
	if !ok {
		return false, fmt.Errorf("timeapprox: expected time.Time, got %T", b)
	}
	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.tolerance, nil
}

var _ plugin.Comparer = (*TimeApproxComparer)(nil)
