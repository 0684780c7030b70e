package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	codes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// tracerName is the default name used when acquiring a tracer instance.
// Consistent naming helps identify the source of spans.
const tracerName = "objgraph"

// GetTracer returns a named tracer instance from the globally configured
// OpenTelemetry provider. If no global provider is configured (e.g., in tests
// or simple applications), it defaults to returning a NoOpTracer, which safely
// discards all tracing data. It's generally preferred to inject the
// TracerProvider into components rather than relying on the global provider.
func GetTracer() oteltrace.Tracer {
	// otel.Tracer handles the fallback to NoOpTracer internally if no provider is set.
	return otel.Tracer(tracerName)
}

// OperationAttributes builds the standard span attribute set for one
// top-level engine operation.
func OperationAttributes(operation, rootType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("objgraph.operation", operation),
		attribute.String("objgraph.root_type", rootType),
	}
}

// ResultAttributes builds the span attribute set recorded when a comparison
// completes.
func ResultAttributes(areEqual bool, differences int, objectsCompared int64, maxDepthReached int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool("objgraph.are_equal", areEqual),
		attribute.Int("objgraph.differences", differences),
		attribute.Int64("objgraph.objects_compared", objectsCompared),
		attribute.Int("objgraph.max_depth_reached", maxDepthReached),
	}
}

// RecordError records an error on an OpenTelemetry span with a stack trace
// and marks the span status as Error. Does nothing if the error is nil or the
// span is nil or not recording.
func RecordError(span oteltrace.Span, err error) {
	if err == nil || span == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err, oteltrace.WithStackTrace(true))
	span.SetStatus(codes.Error, err.Error())
}
