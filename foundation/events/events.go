// Package events fans ledger processing events out to registered
// subscribers such as websocket clients.
package events

import (
	"fmt"
	"sync"
)

// Events maintains a mapping of unique id and channels so goroutines
// can subscribe to and receive ledger events.
type Events struct {
	subscribers map[string]chan string
	mu          sync.RWMutex
}

// New constructs an Events for publishing and subscribing.
func New() *Events {
	return &Events{
		subscribers: make(map[string]chan string),
	}
}

// Shutdown closes and removes all channels that were provided by the
// call to Subscribe.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subscribers {
		delete(evt.subscribers, id)
		close(ch)
	}
}

// Subscribe takes a unique id and returns a channel that receives every
// published event from that point on.
func (evt *Events) Subscribe(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subscribers[id]; exists {
		return ch
	}

	// A message is dropped when the receiver is not ready, so this
	// buffer gives slow websocket writers room before messages are lost.
	const messageBuffer = 100

	ch := make(chan string, messageBuffer)
	evt.subscribers[id] = ch

	return ch
}

// Unsubscribe closes and removes the channel that was provided by the
// call to Subscribe.
func (evt *Events) Unsubscribe(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subscribers[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subscribers, id)
	close(ch)

	return nil
}

// Publish formats the event and signals it to every registered channel.
// Publish will not block waiting for a receiver on any given channel.
// The signature matches the ledger's EventHandler so Publish can be
// handed to the core packages directly.
func (evt *Events) Publish(v string, args ...any) {
	s := fmt.Sprintf(v, args...)

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}
