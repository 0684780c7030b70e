// Package foldcase provides a case-insensitive string comparer. Binding it to
// a string-typed member in a profile makes "Alice" equal "ALICE" without
// touching the rest of the comparison.
package foldcase

import (
	"fmt"
	"strings"

	"github.com/objgraph-labs/objgraph/internal/comparers"
	"github.com/objgraph-labs/objgraph/internal/paramutil"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/plugin"
)

// The init function self-registers the comparer with the global default registry.
func init() {
	comparers.Register("foldcase", NewFoldCaseComparer)
}

// FoldCaseComparer compares two string values ignoring letter case.
// With trim_space enabled it also ignores leading and trailing whitespace.
type FoldCaseComparer struct {
	trimSpace bool
}

// NewFoldCaseComparer is the factory function for FoldCaseComparer.
// Recognized params: trim_space (bool).
func NewFoldCaseComparer(params map[string]interface{}) (plugin.Comparer, error) {
	if err := paramutil.CheckAllowed(params, []string{"trim_space"}); err != nil {
		return nil, err
	}
	trimSpace, _, err := paramutil.GetOptionalBool(params, "trim_space")
	if err != nil {
		return nil, err
	}
	return &FoldCaseComparer{trimSpace: trimSpace}, nil
}

// AreEqual implements plugin.Comparer.
func (c *FoldCaseComparer) AreEqual(a, b interface{}) (bool, error) {
	sa, ok := a.(string)
	if !ok {
		return false, fmt.Errorf("foldcase: expected string, got %T", a)
	}
	sb, ok := b.(string)
	if !ok {
		return false, fmt.Errorf("foldcase: expected string, got %T", b)
	}
	if c.trimSpace {
		sa = strings.TrimSpace(sa)
		sb = strings.TrimSpace(sb)
	}
	return strings.EqualFold(sa, sb), nil
}

var _ plugin.Comparer = (*FoldCaseComparer)(nil)
