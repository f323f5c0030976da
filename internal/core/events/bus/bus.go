// Package bus delivers engine events to presentation subscribers.
// Sessions publish lifecycle events (join, lobby start, match start,
// stop, ...) and never consume anything back, so scoreboards, chat and
// menus stay fully decoupled from the state machine.
package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single engine occurrence.
type Event struct {
	// Type is a dotted event name such as "session.join".
	Type string

	// Source names the session (or component) that emitted the event.
	Source string

	// Timestamp is when the event was published.
	Timestamp time.Time

	// Data carries an event-specific payload.
	Data any
}

// Handler consumes a published event. Handlers run synchronously on
// the publisher's goroutine; a handler error does not stop delivery to
// other handlers.
type Handler func(Event) error

// Subscription identifies one registered handler.
type Subscription struct {
	id        string
	eventType string
	cancel    func()
}

// ID returns the unique subscription id.
func (s *Subscription) ID() string { return s.id }

// EventType returns the type this subscription listens to.
func (s *Subscription) EventType() string { return s.eventType }

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Bus is an in-memory event bus. Subscribing is safe from any
// goroutine; publishing happens on the engine's controlling goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[string]map[string]Handler)}
}

// Subscribe registers a handler for the given event type. The empty
// type subscribes to every event.
func (b *Bus) Subscribe(eventType string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}

	id := uuid.NewString()
	b.handlers[eventType][id] = handler

	return &Subscription{
		id:        id,
		eventType: eventType,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			if m, ok := b.handlers[eventType]; ok {
				delete(m, id)
			}
		},
	}
}

// Publish delivers the event to all matching handlers. Handler errors
// are collected but otherwise ignored; the last one is returned so
// callers that care can log it.
func (b *Bus) Publish(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	matched := make([]Handler, 0, len(b.handlers[event.Type])+len(b.handlers[""]))
	for _, h := range b.handlers[event.Type] {
		matched = append(matched, h)
	}
	for _, h := range b.handlers[""] {
		matched = append(matched, h)
	}
	b.mu.RUnlock()

	var last error

	for _, h := range matched {
		if err := h(event); err != nil {
			last = err
		}
	}

	return last
}
