package events

import (
	// Import the public events interface definition and types.
	"github.com/objgraph-labs/objgraph/pkg/objgraph/v1/events"
	// Import the public logger interface definition.
	objlog "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/log"
)

// ChannelEventBus implements the public events.Bus interface using a buffered Go channel.
// It provides a simple, in-process, decoupled event distribution mechanism suitable for
// scenarios where listeners run within the same process as the engine.
// Its primary characteristic is non-blocking emission of events: the traversal
// cores must never stall on observability.
type ChannelEventBus struct {
	// channel is the buffered Go channel that holds events pending delivery.
	channel chan events.Event
	// log is used for internal operational messages, such as warning about
	// dropped events when the channel buffer is full.
	log objlog.Logger
}

// NewChannelEventBus creates a new ChannelEventBus with the specified buffer size.
// If bufferSize is non-positive, a default buffer size is used.
// Panics if the provided logger is nil.
func NewChannelEventBus(bufferSize int, log objlog.Logger) *ChannelEventBus {
	const defaultBufferSize = 100
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		// Cannot operate without a logger. Fail fast during setup.
		panic("ChannelEventBus requires a non-nil logger")
	}

	bus := &ChannelEventBus{
		channel: make(chan events.Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
	}
	bus.log.Debugf("ChannelEventBus initialized with buffer size %d", bufferSize)
	return bus
}

// Emit sends an event onto the internal buffered channel.
// To prevent blocking the caller (a traversal core), this operation is
// non-blocking. If the channel buffer is full at the time of the call, the
// event is dropped and a warning is logged.
// This implements the events.Bus interface method.
func (c *ChannelEventBus) Emit(event events.Event) {
	select {
	case c.channel <- event:
		// Event successfully sent to the buffer.
	default:
		// The channel buffer is full; the send would block.
		c.log.Warnf("Event channel buffer full, dropping event type '%s'", event.Type)
	}
}

// GetChannel returns the underlying event channel for consumers.
// This method is specific to the ChannelEventBus implementation and is NOT part
// of the public events.Bus interface. It allows external components within the
// same process (like dedicated event listeners or exporters) to directly consume
// events from the channel. The returned channel is read-only.
func (c *ChannelEventBus) GetChannel() <-chan events.Event {
	return c.channel
}

// Close closes the underlying event channel.
// This signals to consumers reading from GetChannel() that no more events will
// be sent. This method is specific to the ChannelEventBus implementation.
func (c *ChannelEventBus) Close() {
	c.log.Debugf("Closing ChannelEventBus channel.")
	close(c.channel)
}

// Ensure ChannelEventBus implements the public events.Bus interface at compile time.
var _ events.Bus = (*ChannelEventBus)(nil)
