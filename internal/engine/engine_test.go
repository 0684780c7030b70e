package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intEvents "github.com/objgraph-labs/objgraph/internal/events"
	"github.com/objgraph-labs/objgraph/internal/logger"
	"github.com/objgraph-labs/objgraph/internal/metrics"
	objgraph "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/events"
)

type address struct {
	City string
}

type person struct {
	Name string
	Age  int
	Home *address
}

func newTestEngine(t *testing.T, opts ...objgraph.EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(logger.NewNopLogger(), opts...)
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresLogger(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestEngineCompareEqual(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.Compare(context.Background(),
		&person{Name: "Alice", Home: &address{City: "A"}},
		&person{Name: "Alice", Home: &address{City: "A"}})
	require.NoError(t, err)
	assert.True(t, result.AreEqual)
	assert.Greater(t, result.ObjectsCompared, int64(0))
}

func TestEngineCompareDifference(t *testing.T) {
	e := newTestEngine(t)
	result, err := e.Compare(context.Background(),
		&person{Name: "Alice"},
		&person{Name: "Bob"})
	require.NoError(t, err)
	require.False(t, result.AreEqual)
	require.Len(t, result.Differences, 1)
	assert.Equal(t, "Name", result.Differences[0].Path)
}

func TestEngineCompareWithOptionsOverride(t *testing.T) {
	e := newTestEngine(t)
	opts := objgraph.DefaultOptions()
	opts.ExcludedMembers = map[string]struct{}{"Age": {}}

	result, err := e.CompareWithOptions(context.Background(),
		person{Name: "Alice", Age: 1},
		person{Name: "Alice", Age: 2},
		opts)
	require.NoError(t, err)
	assert.True(t, result.AreEqual)
}

func TestEngineCompareHonorsContext(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetBatchSize(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	big := make([]int, 10_000)
	_, err := e.Compare(ctx, big, big)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineCompareLimitError(t *testing.T) {
	e := newTestEngine(t)
	opts := objgraph.DefaultOptions()
	opts.MaxObjectCount = 3

	_, err := e.CompareWithOptions(context.Background(),
		make([]int, 100), make([]int, 100), opts)
	require.Error(t, err)
	assert.True(t, objerrors.IsLimitExceeded(err))
}

func TestEngineSnapshotIndependence(t *testing.T) {
	e := newTestEngine(t)
	src := &person{Name: "Alice", Home: &address{City: "A"}}

	out, err := e.TakeSnapshot(context.Background(), src)
	require.NoError(t, err)
	snapshot := out.(*person)
	require.NotSame(t, src, snapshot)

	src.Home.City = "B"
	assert.Equal(t, "A", snapshot.Home.City)
}

func TestEngineSnapshotNil(t *testing.T) {
	e := newTestEngine(t)
	out, err := e.TakeSnapshot(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEngineEmitsLifecycleEvents(t *testing.T) {
	log := logger.NewNopLogger()
	bus := intEvents.NewChannelEventBus(64, log)
	e := newTestEngine(t, objgraph.WithEventBus(bus))

	_, err := e.Compare(context.Background(),
		&person{Name: "Alice"}, &person{Name: "Bob"})
	require.NoError(t, err)
	bus.Close()

	var types []events.EventType
	var diffPath string
	for ev := range bus.GetChannel() {
		types = append(types, ev.Type)
		if ev.Type == events.DifferenceFound {
			diffPath = ev.Path
		}
	}
	assert.Contains(t, types, events.CompareStart)
	assert.Contains(t, types, events.DifferenceFound)
	assert.Contains(t, types, events.CompareEnd)
	assert.Equal(t, "Name", diffPath)
}

func TestEngineEmitsSnapshotEvents(t *testing.T) {
	log := logger.NewNopLogger()
	bus := intEvents.NewChannelEventBus(64, log)
	e := newTestEngine(t, objgraph.WithEventBus(bus))

	_, err := e.TakeSnapshot(context.Background(), &person{Name: "Alice"})
	require.NoError(t, err)
	bus.Close()

	var types []events.EventType
	for ev := range bus.GetChannel() {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, events.SnapshotStart)
	assert.Contains(t, types, events.SnapshotEnd)
}

func TestEngineRecordsMetrics(t *testing.T) {
	provider := metrics.NewPrometheusRegistryProvider()
	e := newTestEngine(t, objgraph.WithMetricsRegistryProvider(provider))

	_, err := e.Compare(context.Background(),
		&person{Name: "Alice"}, &person{Name: "Bob"})
	require.NoError(t, err)
	_, err = e.TakeSnapshot(context.Background(), &person{Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(e.collectors.ComparisonsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(e.collectors.DifferencesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(e.collectors.SnapshotsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(e.collectors.LimitExceededTotal))
}

func TestEngineSetOptionsValidates(t *testing.T) {
	e := newTestEngine(t)

	bad := objgraph.DefaultOptions()
	bad.MaxDepth = -1
	assert.Error(t, e.SetOptions(bad))

	good := objgraph.DefaultOptions()
	good.IgnoreCollectionOrder = true
	require.NoError(t, e.SetOptions(good))

	// The installed defaults apply to subsequent calls.
	result, err := e.Compare(context.Background(), []int{1, 2}, []int{2, 1})
	require.NoError(t, err)
	assert.True(t, result.AreEqual)
}

func TestEngineSetterValidation(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.SetEventBus(nil))
	assert.Error(t, e.SetMetricsRegistryProvider(nil))
	assert.Error(t, e.SetTracerProvider(nil))
	assert.Error(t, e.SetBatchSize(0))
	assert.Error(t, e.SetMaxDuration(-time.Second))
	assert.NoError(t, e.SetBatchSize(16))
	assert.NoError(t, e.SetMaxDuration(time.Minute))
}

func TestEngineCompareAsync(t *testing.T) {
	e := newTestEngine(t)
	outcome := <-e.CompareAsync(context.Background(),
		&person{Name: "Alice"}, &person{Name: "Alice"}, nil)
	require.NoError(t, outcome.Err)
	assert.True(t, outcome.Result.AreEqual)
}

func TestEngineTakeSnapshotAsync(t *testing.T) {
	e := newTestEngine(t)
	outcome := <-e.TakeSnapshotAsync(context.Background(), &person{Name: "Alice"}, nil)
	require.NoError(t, outcome.Err)
	assert.Equal(t, "Alice", outcome.Value.(*person).Name)
}

func TestEngineMaxDurationTimesOut(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetBatchSize(1))
	require.NoError(t, e.SetMaxDuration(time.Nanosecond))

	big := make([]int, 100_000)
	_, err := e.Compare(context.Background(), big, big)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
