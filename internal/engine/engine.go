// Package engine wires the comparison and clone cores to the ambient stack:
// options resolution, event emission, Prometheus metrics, OpenTelemetry spans,
// and context-aware batch driving.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	objgraph "github.com/objgraph-labs/objgraph/pkg/objgraph/v1"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/events"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/metrics"
	objtracing "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/tracing"

	"github.com/objgraph-labs/objgraph/internal/clone"
	"github.com/objgraph-labs/objgraph/internal/compare"
	intEvents "github.com/objgraph-labs/objgraph/internal/events"
	intMetrics "github.com/objgraph-labs/objgraph/internal/metrics"
	"github.com/objgraph-labs/objgraph/internal/runner"
	intTracing "github.com/objgraph-labs/objgraph/internal/tracing"

	codes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "objgraph-engine"

// Engine is the top-level comparison and snapshot engine.
type Engine struct {
	// Core services & providers.
	eventBus        events.Bus
	metricsProvider metrics.RegistryProvider
	tracerProvider  objtracing.TracerProvider
	log             objlog.Logger

	// Configuration. Guarded by mu: the public interface exposes setters, and
	// a configured engine is safe for concurrent Compare/TakeSnapshot calls.
	mu          sync.RWMutex
	options     *objgraph.Options
	batchSize   int
	maxDuration time.Duration

	// Metrics collectors.
	collectors *intMetrics.EngineCollectors
}

var _ objgraph.EngineV1 = (*Engine)(nil)

// NewEngine constructs an engine with the given logger and functional options.
// Components not supplied get working defaults: DefaultOptions, a NoOp event
// bus, a fresh Prometheus registry, and a NoOp tracer provider.
func NewEngine(log objlog.Logger, opts ...objgraph.EngineOption) (*Engine, error) {
	if log == nil {
		return nil, objerrors.NewConfigError("logger cannot be nil", nil)
	}

	e := &Engine{
		log:       log,
		options:   objgraph.DefaultOptions(),
		batchSize: runner.DefaultBatchSize,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, objerrors.NewConfigError(fmt.Sprintf("failed to apply engine option: %v", err), err)
		}
	}

	if e.eventBus == nil {
		e.log.Debugf("No event bus provided, using default NoOp bus.")
		e.eventBus = intEvents.NewNoOpEventBus()
	}
	if e.metricsProvider == nil {
		e.log.Debugf("No metrics provider provided, using default Prometheus provider.")
		e.metricsProvider = intMetrics.NewPrometheusRegistryProvider()
	}
	if e.tracerProvider == nil {
		e.log.Debugf("No tracer provider provided, using default NoOp provider.")
		tp, err := intTracing.NewNoOpProvider()
		if err != nil {
			return nil, objerrors.NewConfigError("failed to create default NoOp tracer provider", err)
		}
		e.tracerProvider = tp
	}

	e.initMetrics()

	return e, nil
}

func (e *Engine) initMetrics() {
	reg := e.metricsProvider.Registry()
	if reg == nil {
		e.log.Errorf("Metrics provider returned a nil registry, cannot initialize metrics.")
		return
	}
	e.collectors = intMetrics.NewEngineCollectors(reg)
}

// Compare walks both graphs with the engine's default options.
func (e *Engine) Compare(ctx context.Context, left, right interface{}) (*objgraph.ComparisonResult, error) {
	return e.CompareWithOptions(ctx, left, right, nil)
}

// CompareWithOptions walks both graphs with per-call options. A nil opts uses
// the engine defaults. The call honors ctx cancellation at batch boundaries.
func (e *Engine) CompareWithOptions(ctx context.Context, left, right interface{}, opts *objgraph.Options) (result *objgraph.ComparisonResult, err error) {
	opts, batchSize, maxDuration := e.resolve(opts)

	tracer := e.tracerProvider.GetTracer(tracerName)
	ctx, span := tracer.Start(ctx, "objgraph.compare",
		oteltrace.WithAttributes(intTracing.OperationAttributes("compare", typeNameOf(left))...))
	defer span.End()

	e.emit(events.CompareStart, "", typeNameOf(left), nil)
	if e.collectors != nil {
		e.collectors.ComparisonsTotal.Inc()
	}

	cmp := compare.New(left, right, opts, e.log)
	err = runner.Drive(ctx, cmp, batchSize, maxDuration)
	result = cmp.Result()

	if e.collectors != nil {
		e.collectors.ComparisonDuration.Observe(result.ComparisonTime.Seconds())
		e.collectors.DifferencesTotal.Add(float64(len(result.Differences)))
		if objerrors.IsLimitExceeded(err) {
			e.collectors.LimitExceededTotal.Inc()
		}
	}
	for _, d := range result.Differences {
		e.emit(events.DifferenceFound, d.Path, "", map[string]interface{}{"message": d.Message})
	}
	if objerrors.IsLimitExceeded(err) {
		e.emit(events.LimitExceeded, "", typeNameOf(left), map[string]interface{}{"error": err.Error()})
	}
	e.emit(events.CompareEnd, "", typeNameOf(left), map[string]interface{}{
		"are_equal":        result.AreEqual,
		"differences":      len(result.Differences),
		"objects_compared": result.ObjectsCompared,
	})

	if err != nil {
		intTracing.RecordError(span, err)
		e.log.LogCtx(ctx, levelForError(err), "comparison aborted", "error", err)
		return result, err
	}
	span.SetAttributes(intTracing.ResultAttributes(result.AreEqual, len(result.Differences), result.ObjectsCompared, result.MaxDepthReached)...)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// TakeSnapshot deep-copies value with the engine's default options.
func (e *Engine) TakeSnapshot(ctx context.Context, value interface{}) (interface{}, error) {
	return e.TakeSnapshotWithOptions(ctx, value, nil)
}

// TakeSnapshotWithOptions deep-copies value with per-call options.
func (e *Engine) TakeSnapshotWithOptions(ctx context.Context, value interface{}, opts *objgraph.Options) (interface{}, error) {
	opts, batchSize, maxDuration := e.resolve(opts)

	tracer := e.tracerProvider.GetTracer(tracerName)
	ctx, span := tracer.Start(ctx, "objgraph.snapshot",
		oteltrace.WithAttributes(intTracing.OperationAttributes("snapshot", typeNameOf(value))...))
	defer span.End()

	start := time.Now()
	e.emit(events.SnapshotStart, "", typeNameOf(value), nil)
	if e.collectors != nil {
		e.collectors.SnapshotsTotal.Inc()
	}

	cl := clone.New(value, opts, e.log, e.eventBus)
	err := runner.Drive(ctx, cl, batchSize, maxDuration)

	if e.collectors != nil {
		e.collectors.SnapshotDuration.Observe(time.Since(start).Seconds())
		e.collectors.SnapshotFailuresTotal.Add(float64(cl.MemberFailures()))
		if objerrors.IsLimitExceeded(err) {
			e.collectors.LimitExceededTotal.Inc()
		}
	}
	if objerrors.IsLimitExceeded(err) {
		e.emit(events.LimitExceeded, "", typeNameOf(value), map[string]interface{}{"error": err.Error()})
	}
	e.emit(events.SnapshotEnd, "", typeNameOf(value), map[string]interface{}{
		"objects_cloned": cl.ObjectsCloned(),
		"succeeded":      err == nil,
	})

	if err != nil {
		intTracing.RecordError(span, err)
		e.log.LogCtx(ctx, levelForError(err), "snapshot aborted", "error", err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return cl.Value(), nil
}

// CompareOutcome carries the result of an asynchronous Compare call.
type CompareOutcome struct {
	Result *objgraph.ComparisonResult
	Err    error
}

// SnapshotOutcome carries the result of an asynchronous TakeSnapshot call.
type SnapshotOutcome struct {
	Value interface{}
	Err   error
}

// CompareAsync runs CompareWithOptions on its own goroutine and delivers the
// outcome on the returned channel. The channel is buffered and closed after
// delivery, so the worker never blocks on a caller that stopped listening.
// Cancel ctx to abandon the traversal at the next batch boundary.
func (e *Engine) CompareAsync(ctx context.Context, left, right interface{}, opts *objgraph.Options) <-chan CompareOutcome {
	ch := make(chan CompareOutcome, 1)
	go func() {
		defer close(ch)
		result, err := e.CompareWithOptions(ctx, left, right, opts)
		ch <- CompareOutcome{Result: result, Err: err}
	}()
	return ch
}

// TakeSnapshotAsync runs TakeSnapshotWithOptions on its own goroutine and
// delivers the outcome on the returned channel, with the same channel
// semantics as CompareAsync.
func (e *Engine) TakeSnapshotAsync(ctx context.Context, value interface{}, opts *objgraph.Options) <-chan SnapshotOutcome {
	ch := make(chan SnapshotOutcome, 1)
	go func() {
		defer close(ch)
		snapshot, err := e.TakeSnapshotWithOptions(ctx, value, opts)
		ch <- SnapshotOutcome{Value: snapshot, Err: err}
	}()
	return ch
}

// resolve snapshots the engine configuration for one call. Per-call options
// win over engine defaults; both paths hand the cores a clone so a caller
// mutating its Options mid-call cannot affect a running traversal.
func (e *Engine) resolve(opts *objgraph.Options) (*objgraph.Options, int, time.Duration) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if opts == nil {
		opts = e.options
	}
	return opts.Clone(), e.batchSize, e.maxDuration
}

func (e *Engine) emit(t events.EventType, path, typeName string, payload map[string]interface{}) {
	e.eventBus.Emit(events.Event{
		Type:      t,
		Timestamp: time.Now(),
		Path:      path,
		TypeName:  typeName,
		Payload:   payload,
	})
}

// MetricsRegistryProvider returns the underlying metrics provider.
func (e *Engine) MetricsRegistryProvider() metrics.RegistryProvider {
	return e.metricsProvider
}

// TracerProvider returns the underlying tracing provider.
func (e *Engine) TracerProvider() objtracing.TracerProvider {
	return e.tracerProvider
}

// SetOptions validates and installs new default options.
func (e *Engine) SetOptions(opts *objgraph.Options) error {
	if opts == nil {
		return objerrors.NewConfigError("options cannot be nil", nil)
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.options = opts.Clone()
	return nil
}

// SetEventBus installs the event bus used for traversal events.
func (e *Engine) SetEventBus(bus events.Bus) error {
	if bus == nil {
		return objerrors.NewConfigError("event bus cannot be nil", nil)
	}
	e.eventBus = bus
	return nil
}

// SetMetricsRegistryProvider installs the metrics provider. Must be called
// before the engine initializes its collectors (i.e. as an engine option).
func (e *Engine) SetMetricsRegistryProvider(provider metrics.RegistryProvider) error {
	if provider == nil {
		return objerrors.NewConfigError("metrics registry provider cannot be nil", nil)
	}
	e.metricsProvider = provider
	return nil
}

// SetTracerProvider installs the tracer provider.
func (e *Engine) SetTracerProvider(provider objtracing.TracerProvider) error {
	if provider == nil {
		return objerrors.NewConfigError("tracer provider cannot be nil", nil)
	}
	e.tracerProvider = provider
	return nil
}

// SetBatchSize configures how many work items the traversal cores process
// between cancellation checks.
func (e *Engine) SetBatchSize(size int) error {
	if size <= 0 {
		return objerrors.NewConfigError("batch size must be positive", nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batchSize = size
	return nil
}

// SetMaxDuration bounds the wall-clock time of one Compare or TakeSnapshot
// call. Zero disables the bound. Not part of the public interface; the CLI
// and embedding applications reach it through the concrete type.
func (e *Engine) SetMaxDuration(d time.Duration) error {
	if d < 0 {
		return objerrors.NewConfigError("max duration cannot be negative", nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxDuration = d
	return nil
}

func typeNameOf(v interface{}) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// levelForError maps limit violations to WARN (they are configured bounds
// doing their job) and everything else to ERROR.
func levelForError(err error) slog.Level {
	if objerrors.IsLimitExceeded(err) {
		return slog.LevelWarn
	}
	return slog.LevelError
}
