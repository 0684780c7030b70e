package events

import (
	"context"

	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/events"
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsEventListener subscribes to an engine event bus and translates
// traversal events into Prometheus metrics. It runs out-of-band from the
// traversal cores, so slow metric backends never affect compare or snapshot
// latency.
type MetricsEventListener struct {
	bus                 *ChannelEventBus
	log                 objlog.Logger
	differencesCounter  prometheus.Counter
	cloneFailureCounter prometheus.Counter
	limitCounter        prometheus.Counter
}

// NewMetricsEventListener creates a new listener. It requires a
// ChannelEventBus to subscribe to and the Prometheus counters it increments.
func NewMetricsEventListener(bus *ChannelEventBus, differences, cloneFailures, limits prometheus.Counter, log objlog.Logger) *MetricsEventListener {
	if bus == nil || differences == nil || cloneFailures == nil || limits == nil || log == nil {
		// A nil logger would cause a panic, so we check all dependencies.
		panic("MetricsEventListener requires a non-nil ChannelEventBus, Prometheus counters, and Logger")
	}
	return &MetricsEventListener{
		bus:                 bus,
		log:                 log.With("component", "MetricsEventListener"),
		differencesCounter:  differences,
		cloneFailureCounter: cloneFailures,
		limitCounter:        limits,
	}
}

// Start begins listening for events on the bus in the calling goroutine.
// The provided context is used to signal shutdown. The loop also exits when
// the bus channel is closed.
func (l *MetricsEventListener) Start(ctx context.Context) {
	l.log.Debugf("Starting metrics event listener...")
	for {
		select {
		case event, ok := <-l.bus.GetChannel():
			if !ok {
				l.log.Debugf("Event bus channel closed, stopping listener.")
				return
			}
			l.handleEvent(event)
		case <-ctx.Done():
			l.log.Debugf("Context cancelled, stopping metrics event listener.")
			return
		}
	}
}

// handleEvent processes a single event, incrementing metrics as needed.
func (l *MetricsEventListener) handleEvent(event events.Event) {
	switch event.Type {
	case events.DifferenceFound:
		l.differencesCounter.Inc()
	case events.MemberCloneFailed:
		l.cloneFailureCounter.Inc()
	case events.LimitExceeded:
		l.limitCounter.Inc()
	}
}
