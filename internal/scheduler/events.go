package scheduler

import "sync"

// Lifecycle event names.
const (
	EventSubmitted  = "item_submitted"
	EventDispatched = "item_dispatched"
	EventRetry      = "item_retry"
	EventSucceeded  = "item_succeeded"
	EventFailed     = "item_failed"
	EventRejected   = "item_rejected"
)

// Event is one item lifecycle transition.
type Event struct {
	Name     string
	ItemID   string
	Priority int
	Attempt  int
	Fields   map[string]any
}

// EventPublisher receives events from the dispatcher goroutine. Publish must
// be fast and must not block or panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Named returns the events with the given name, in publish order.
func (p *MemoryPublisher) Named(name string) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
