// Package events provides the process-wide signal bus connecting the HTTP
// transport and token manager to the session state machine and UI layer. It
// replaces a browser-style global event target with an explicit registry
// owned by the application shell.
package events

import "sync"

// Topic identifies a process-wide signal.
type Topic string

const (
	// SessionExpired fires on unrecoverable refresh failure. Subscribers
	// should treat the current session as gone.
	SessionExpired Topic = "auth:token_expired"

	// APIDown fires when a request fails with no response at all, as
	// opposed to an HTTP error response.
	APIDown Topic = "api:down"
)

// Bus is a minimal synchronous publish/subscribe registry.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Topic]map[int]func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]func())}
}

// Subscribe registers fn for topic and returns an unsubscribe function.
// Unsubscribing more than once is a no-op.
func (b *Bus) Subscribe(topic Topic, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish invokes every handler registered for topic. Handlers run on the
// caller's goroutine, outside the bus lock, so they may subscribe or
// unsubscribe freely.
func (b *Bus) Publish(topic Topic) {
	b.mu.Lock()
	handlers := make([]func(), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
