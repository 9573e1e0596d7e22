package shared

import "sync"

// EventSource is implemented by every aggregate root. The persistence layer
// drains it once per successful write.
type EventSource interface {
	PullDomainEvents() []Event
}

// AggregateRoot buffers uncommitted domain events. Embed it by value in an
// aggregate struct and always handle the aggregate through a pointer.
type AggregateRoot struct {
	mu     sync.Mutex
	events []Event
}

// Record appends an event to the pending buffer.
func (a *AggregateRoot) Record(e Event) {
	a.mu.Lock()
	a.events = append(a.events, e)
	a.mu.Unlock()
}

// PullDomainEvents returns the pending events in insertion order and clears the buffer.
func (a *AggregateRoot) PullDomainEvents() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.events
	a.events = nil
	return out
}

// PendingEvents is a read-only snapshot of the buffer.
func (a *AggregateRoot) PendingEvents() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Event, len(a.events))
	copy(out, a.events)
	return out
}

// EventNames is a convenience for logging and tests.
func EventNames(events []Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name()
	}
	return names
}
