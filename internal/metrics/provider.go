package metrics

import (
	objmetrics "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistryProvider implements the RegistryProvider interface
// using a standard Prometheus registry.
type PrometheusRegistryProvider struct {
	registry *prometheus.Registry
}

// NewPrometheusRegistryProvider creates a new metrics provider backed by Prometheus.
func NewPrometheusRegistryProvider() *PrometheusRegistryProvider {
	return &PrometheusRegistryProvider{
		registry: prometheus.NewRegistry(),
	}
}

// Registry returns the underlying Prometheus registry.
func (p *PrometheusRegistryProvider) Registry() *prometheus.Registry {
	return p.registry
}

// Ensure implementation satisfies the interface.
var _ objmetrics.RegistryProvider = (*PrometheusRegistryProvider)(nil)

// EngineCollectors bundles the engine's Prometheus instruments. All are
// registered against one registry at construction; registration failures
// panic, matching prometheus.MustRegister semantics, because a misnamed
// metric is a programming error.
type EngineCollectors struct {
	ComparisonsTotal      prometheus.Counter
	DifferencesTotal      prometheus.Counter
	SnapshotsTotal        prometheus.Counter
	SnapshotFailuresTotal prometheus.Counter
	LimitExceededTotal    prometheus.Counter
	ComparisonDuration    prometheus.Histogram
	SnapshotDuration      prometheus.Histogram
}

// NewEngineCollectors creates and registers the engine instrument set.
func NewEngineCollectors(reg *prometheus.Registry) *EngineCollectors {
	c := &EngineCollectors{
		ComparisonsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_comparisons_total",
			Help: "Total number of top-level Compare calls.",
		}),
		DifferencesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_differences_total",
			Help: "Total number of structural differences recorded.",
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_snapshots_total",
			Help: "Total number of top-level TakeSnapshot calls.",
		}),
		SnapshotFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_snapshot_member_failures_total",
			Help: "Total number of non-fatal per-member clone failures.",
		}),
		LimitExceededTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_limit_exceeded_total",
			Help: "Total number of operations aborted by a depth or object-count limit.",
		}),
		ComparisonDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "objgraph_comparison_duration_seconds",
			Help:    "Wall-clock duration of top-level Compare calls.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "objgraph_snapshot_duration_seconds",
			Help:    "Wall-clock duration of top-level TakeSnapshot calls.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
	reg.MustRegister(
		c.ComparisonsTotal,
		c.DifferencesTotal,
		c.SnapshotsTotal,
		c.SnapshotFailuresTotal,
		c.LimitExceededTotal,
		c.ComparisonDuration,
		c.SnapshotDuration,
	)
	return c
}

// ListenerCollectors bundles the instruments the event-bus metrics listener
// increments. They live under an objgraph_events_ prefix so the event-stream
// view stays distinct from the engine's authoritative counters.
type ListenerCollectors struct {
	DifferencesTotal   prometheus.Counter
	CloneFailuresTotal prometheus.Counter
	LimitsTotal        prometheus.Counter
}

// NewListenerCollectors creates and registers the listener instrument set.
func NewListenerCollectors(reg *prometheus.Registry) *ListenerCollectors {
	c := &ListenerCollectors{
		DifferencesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_events_differences_total",
			Help: "DifferenceFound events observed on the event bus.",
		}),
		CloneFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_events_member_clone_failures_total",
			Help: "MemberCloneFailed events observed on the event bus.",
		}),
		LimitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "objgraph_events_limit_exceeded_total",
			Help: "LimitExceeded events observed on the event bus.",
		}),
	}
	reg.MustRegister(c.DifferencesTotal, c.CloneFailuresTotal, c.LimitsTotal)
	return c
}
