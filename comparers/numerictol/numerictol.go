// Package numerictol provides a float64 comparer with its own tolerance,
// independent of the profile-wide float settings. Binding it to a specific
// numeric type lets one field carry a looser (or tighter) tolerance than the
// rest of the graph.
package numerictol

import (
	"fmt"
	"math"

	"github.com/objgraph-labs/objgraph/internal/comparers"
	"github.com/objgraph-labs/objgraph/internal/paramutil"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

// The init function self-registers the comparer with the global default registry.
func init() {
	comparers.Register("numerictol", NewNumericTolComparer)
}

// NumericTolComparer compares two float64 values within a tolerance, applied
// absolutely or relatively to the larger operand magnitude.
type NumericTolComparer struct {
	tolerance float64
	relative  bool
}

// NewNumericTolComparer is the factory function for NumericTolComparer.
// Recognized params: tolerance (number, required), relative (bool).
func NewNumericTolComparer(params map[string]interface{}) (plugin.Comparer, error) {
	if err := paramutil.CheckAllowed(params, []string{"tolerance", "relative"}); err != nil {
		return nil, err
	}
	if err := paramutil.CheckRequired(params, []string{"tolerance"}); err != nil {
		return nil, err
	}
	tol, _, err := paramutil.GetOptionalFloat(params, "tolerance")
	if err != nil {
		return nil, err
	}
	if tol < 0 {
		return nil, fmt.Errorf("numerictol: 'tolerance' cannot be negative")
	}
	relative, _, err := paramutil.GetOptionalBool(params, "relative")
	if err != nil {
		return nil, err
	}
	return &NumericTolComparer{tolerance: tol, relative: relative}, nil
}

// AreEqual implements plugin.Comparer.
func (c *NumericTolComparer) AreEqual(a, b interface{}) (bool, error) {
	fa, ok := toFloat(a)
	if !ok {
		return false, fmt.Errorf("numerictol: expected a number, got %T", a)
	}
	fb, ok := toFloat(b)
	if !ok {
		return false, fmt.Errorf("numerictol: expected a number, got %T", b)
	}
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return math.IsNaN(fa) && math.IsNaN(fb), nil
	}
	tol := c.tolerance
	if c.relative {
		tol *= math.Max(math.Abs(fa), math.Abs(fb))
	}
	return math.Abs(fa-fb) <= tol, nil
}

// toFloat widens any numeric value to float64. YAML profiles deliver integers
// as int, so both paths matter.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

var _ plugin.Comparer = (*NumericTolComparer)(nil)
