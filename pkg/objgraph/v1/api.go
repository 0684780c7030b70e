package v1

import (
	"context"

	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/events"
	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/metrics"
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/tracing"
)

// EngineV1 defines the public interface for the objgraph comparison and
// snapshot engine.
type EngineV1 interface {
	// Compare walks both graphs in lockstep and reports every structural
	// difference by path. It never returns an error for ordinary structural
	// mismatches; those accumulate in the result. It returns an error only
	// for hard limits (MaxDepthExceededError, MaxObjectCountExceededError)
	// and unrecoverable per-object failures (ComparisonError).
	Compare(ctx context.Context, left, right interface{}) (*ComparisonResult, error)

	// CompareWithOptions is Compare with per-call options overriding the
	// engine's defaults. The options are consumed read-only.
	CompareWithOptions(ctx context.Context, left, right interface{}, opts *Options) (*ComparisonResult, error)

	// TakeSnapshot produces a fully independent deep copy of value, or nil
	// for nil input. Aliasing and cycle topology are preserved: two members
	// referencing one object yield two members referencing one clone.
	// It may return a CloneError or a limit error.
	TakeSnapshot(ctx context.Context, value interface{}) (interface{}, error)

	// TakeSnapshotWithOptions is TakeSnapshot with per-call options.
	TakeSnapshotWithOptions(ctx context.Context, value interface{}, opts *Options) (interface{}, error)

	// MetricsRegistryProvider returns the underlying metrics provider.
	MetricsRegistryProvider() metrics.RegistryProvider
	// TracerProvider returns the underlying tracing provider.
	TracerProvider() tracing.TracerProvider

	// Setter methods for configuring engine components programmatically.
	SetOptions(opts *Options) error
	SetEventBus(bus events.Bus) error
	SetMetricsRegistryProvider(provider metrics.RegistryProvider) error
	SetTracerProvider(provider tracing.TracerProvider) error
	SetBatchSize(size int) error
}

// EngineOption is a function type used to configure the objgraph engine at creation.
type EngineOption func(EngineV1) error

// WithOptions sets the engine's default comparison/snapshot options.
func WithOptions(opts *Options) EngineOption {
	return func(e EngineV1) error {
		if opts == nil {
			return objerrors.NewConfigError("options cannot be nil", nil)
		}
		return e.SetOptions(opts)
	}
}

// WithEventBus is an engine option to provide a custom event bus.
func WithEventBus(bus events.Bus) EngineOption {
	return func(e EngineV1) error {
		if bus == nil {
			return objerrors.NewConfigError("event bus cannot be nil", nil)
		}
		return e.SetEventBus(bus)
	}
}

// WithMetricsRegistryProvider is an engine option to provide a custom metrics provider.
func WithMetricsRegistryProvider(provider metrics.RegistryProvider) EngineOption {
	return func(e EngineV1) error {
		if provider == nil {
			return objerrors.NewConfigError("metrics registry provider cannot be nil", nil)
		}
		return e.SetMetricsRegistryProvider(provider)
	}
}

// WithTracerProvider is an engine option to provide a custom tracing provider.
func WithTracerProvider(provider tracing.TracerProvider) EngineOption {
	return func(e EngineV1) error {
		if provider == nil {
			return objerrors.NewConfigError("tracer provider cannot be nil", nil)
		}
		return e.SetTracerProvider(provider)
	}
}

// WithBatchSize is an engine option to configure how many work items the
// async wrappers process between cooperative yields and cancellation checks.
func WithBatchSize(size int) EngineOption {
	return func(e EngineV1) error {
		if size <= 0 {
			return objerrors.NewConfigError("batch size must be positive", nil)
		}
		return e.SetBatchSize(size)
	}
}
