package v1

import (
	"fmt"
	"time"
)

// Difference is one recorded structural mismatch between the two graphs.
// Path is a dotted/bracketed accessor string (e.g. "Orders[2].Total") used
// only for diagnostics; Message describes the mismatch in human terms.
type Difference struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (d Difference) String() string {
	if d.Path == "" {
		return d.Message
	}
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// ComparisonResult accumulates the outcome of one top-level Compare call.
// It is created fresh per call, owned exclusively by that call, and must not
// be shared across goroutines while the call is in flight.
//
// AreEqual starts true and monotonically flips to false on the first recorded
// difference; it never flips back. Only the final aggregated Differences list
// and AreEqual flag are meaningful: arrival order across unrelated branches of
// the graph is not guaranteed and must not be relied upon.
type ComparisonResult struct {
	AreEqual        bool          `json:"are_equal"`
	Differences     []Difference  `json:"differences,omitempty"`
	ObjectsCompared int64         `json:"objects_compared"`
	MaxDepthReached int           `json:"max_depth_reached"`
	ComparisonTime  time.Duration `json:"comparison_time"`
}

// NewComparisonResult returns an empty result in its initial "equal" state.
func NewComparisonResult() *ComparisonResult {
	return &ComparisonResult{AreEqual: true}
}

// RecordDifference appends a difference and flips AreEqual to false.
func (r *ComparisonResult) RecordDifference(path, message string) {
	r.AreEqual = false
	r.Differences = append(r.Differences, Difference{Path: path, Message: message})
}

// ObserveDepth tracks the deepest work item processed during the call.
func (r *ComparisonResult) ObserveDepth(depth int) {
	if depth > r.MaxDepthReached {
		r.MaxDepthReached = depth
	}
}
