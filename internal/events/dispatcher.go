package events

import (
	"context"
	"sync"
)

// EventHandler consumes a published note event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans note events out to registered subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// memoryDispatcher delivers events synchronously, in process. Subscribers
// run on the publisher's goroutine.
type memoryDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher backed by process memory.
func NewInMemoryDispatcher() Dispatcher {
	return &memoryDispatcher{
		subscribers: make(map[EventType][]EventHandler),
	}
}

// Publish invokes every subscriber for the event's type. A failing
// subscriber does not stop delivery to the rest.
func (d *memoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := append([]EventHandler(nil), d.subscribers[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range subs {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for one event type.
func (d *memoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
}
