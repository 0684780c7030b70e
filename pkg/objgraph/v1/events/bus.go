package events

import "time"

// EventType represents the type of an objgraph engine event.
type EventType string

// Standard objgraph Event Types
const (
	CompareStart      EventType = "CompareStart"      // A top-level Compare call began
	CompareEnd        EventType = "CompareEnd"        // A top-level Compare call finished
	SnapshotStart     EventType = "SnapshotStart"     // A top-level TakeSnapshot call began
	SnapshotEnd       EventType = "SnapshotEnd"       // A top-level TakeSnapshot call finished
	DifferenceFound   EventType = "DifferenceFound"   // A structural difference was recorded
	MemberCloneFailed EventType = "MemberCloneFailed" // Non-fatal per-member clone failure
	LimitExceeded     EventType = "LimitExceeded"     // MaxDepth or MaxObjectCount was hit
)

// Event represents a significant occurrence within the objgraph engine.
type Event struct {
	// Type categorizes the event.
	Type EventType `json:"type"`
	// Timestamp marks when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// Path identifies the graph location the event relates to, if applicable.
	// Paths use dotted/bracketed accessor notation, e.g. "Orders[2].Total".
	Path string `json:"path,omitempty"`
	// TypeName identifies the Go type involved, if applicable.
	TypeName string `json:"type_name,omitempty"`
	// Payload contains event-specific data. Payloads must not carry references
	// into the graphs being compared or cloned; copy scalar context only.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Bus defines the interface for publishing events within the objgraph engine.
// Implementations could include logging, metrics translation, etc.
type Bus interface {
	// Emit publishes an event to the bus.
	// Implementations should be non-blocking or handle blocking carefully
	// to avoid slowing down the traversal core. Absence of a meaningful bus
	// must not change engine behavior, only observability.
	Emit(event Event)
}
