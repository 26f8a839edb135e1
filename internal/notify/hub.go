// Package notify delivers realtime events to whichever connection
// currently represents a user, if any.
package notify

import (
	"context"
	"sync"
)

// Event is one realtime message pushed to a subscriber.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub maps user IDs to live subscriber channels. Delivery is best-effort:
// a user with no subscribers, or one whose channel is full, simply misses
// the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a connection for the user and returns the event
// channel plus a cancel func that must be called on disconnect.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	set, ok := h.subscribers[userID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subscribers[userID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subscribers[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subscribers, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify fans the event out to the user's live connections. It never
// blocks: a subscriber that cannot keep up drops the event.
func (h *Hub) Notify(ctx context.Context, userID, event string, payload any) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- Event{Name: event, Payload: payload}:
		default:
		}
	}
	return nil
}

// Connected reports how many users currently hold a live connection.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
