// Package events delivers real-time job events to connected websocket
// clients. The broker publishes here; the transport layer owns the
// connections.
package events

// EventType identifies the kind of job event being pushed.
type EventType string

const (
	EventJobCreated   EventType = "job_created"
	EventJobCancelled EventType = "job_cancelled"
)

// Event is the wire shape pushed to subscribers.
type Event struct {
	Type       EventType `json:"type"`
	JobID      string    `json:"job_id"`
	Status     string    `json:"status,omitempty"`
	ProviderID string    `json:"provider_id,omitempty"`
}

// Publisher accepts job events for delivery. Publish must not block the
// caller on slow subscribers.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event. Useful in tests and when no push
// channel is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(Event) {}
