package feed

import "time"

// Event names published by the Manager.
const (
	EventChannelConnecting  = "channel_connecting"
	EventChannelOpen        = "channel_open"
	EventChannelError       = "channel_error"
	EventChannelClosed      = "channel_closed"
	EventTeardownScheduled  = "teardown_scheduled"
	EventTeardownCancelled  = "teardown_cancelled"
	EventTeardownFired      = "teardown_fired"
	EventRequestSent        = "request_sent"
	EventRequestCoalesced   = "request_coalesced"
	EventSnapshotUpdated    = "snapshot_updated"
	EventResponseDiscarded  = "response_discarded"
	EventResponseParseError = "response_parse_error"
	EventReadyWaitTimeout   = "ready_wait_timeout"
	EventStateChanged       = "state_changed"
)

// Event represents a channel or feed lifecycle event.
type Event struct {
	Name   string         `json:"name"`
	Node   string         `json:"node"`
	Feed   Kind           `json:"feed,omitempty"`
	Time   time.Time      `json:"time"`
	Fields map[string]any `json:"fields,omitempty"`
}

// EventPublisher receives events from the Manager. Publish is called from the
// Manager's loop goroutine: it must not block and must not call back into the
// Manager.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
