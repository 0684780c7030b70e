// Package runner drives the steppable traversal engines cooperatively.
// Compare and clone cores are synchronous batch machines; this package adds
// the cancellation and deadline behavior around them so callers get
// context-aware operations without the cores ever touching a context.
package runner

import (
	"context"
	"runtime"
	"time"
)

// DefaultBatchSize is the number of work items processed between
// cancellation checks when the caller does not configure one.
const DefaultBatchSize = 256

// Stepper is a resumable traversal. Step processes up to n work items and
// reports completion; after the first true or error it must keep returning
// the same outcome.
type Stepper interface {
	Step(n int) (done bool, err error)
}

// Drive runs s to completion, checking for cancellation between batches.
// Cancellation granularity is one batch: a batch in progress always finishes,
// so a Step implementation must never block. A non-positive batchSize falls
// back to DefaultBatchSize; a zero maxDuration disables the wall-clock bound.
//
// The returned error is ctx.Err() on cancellation, context.DeadlineExceeded
// when maxDuration elapses, or the stepper's own error.
func Drive(ctx context.Context, s Stepper, batchSize int, maxDuration time.Duration) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	var deadline time.Time
	if maxDuration > 0 {
		deadline = time.Now().Add(maxDuration)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return context.DeadlineExceeded
		}

		done, err := s.Step(batchSize)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		// Long traversals should not starve sibling goroutines.
		runtime.Gosched()
	}
}
