package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStepper completes after a fixed number of batches, optionally failing.
type fakeStepper struct {
	batches   int
	failAfter int
	failWith  error
	calls     int
	lastN     int
}

func (s *fakeStepper) Step(n int) (bool, error) {
	s.calls++
	s.lastN = n
	if s.failWith != nil && s.calls > s.failAfter {
		return true, s.failWith
	}
	return s.calls >= s.batches, nil
}

func TestDriveRunsToCompletion(t *testing.T) {
	s := &fakeStepper{batches: 5}
	err := Drive(context.Background(), s, 32, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, s.calls)
	assert.Equal(t, 32, s.lastN)
}

func TestDriveDefaultsBatchSize(t *testing.T) {
	s := &fakeStepper{batches: 1}
	require.NoError(t, Drive(context.Background(), s, 0, 0))
	assert.Equal(t, DefaultBatchSize, s.lastN)
}

func TestDrivePropagatesStepperError(t *testing.T) {
	boom := errors.New("boom")
	s := &fakeStepper{batches: 100, failAfter: 2, failWith: boom}
	err := Drive(context.Background(), s, 1, 0)
	assert.ErrorIs(t, err, boom)
}

func TestDriveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeStepper{batches: 1000}
	err := Drive(ctx, s, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.calls, "no batch may start after cancellation")
}

func TestDriveCancelsBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stepped := make(chan struct{}, 1)
	s := steppFunc(func(n int) (bool, error) {
		select {
		case stepped <- struct{}{}:
		default:
		}
		return false, nil
	})

	done := make(chan error, 1)
	go func() { done <- Drive(ctx, s, 1, 0) }()

	<-stepped
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Drive did not observe cancellation")
	}
}

func TestDriveWallClockDeadline(t *testing.T) {
	s := steppFunc(func(n int) (bool, error) {
		time.Sleep(time.Millisecond)
		return false, nil
	})
	err := Drive(context.Background(), s, 1, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type steppFunc func(n int) (bool, error)

func (f steppFunc) Step(n int) (bool, error) { return f(n) }
