package assessment

import (
	"context"
	"sync"
)

// Hub delivers events to in-process subscribers of a session.
type Hub struct {
	buffer int

	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{buffer: buffer, subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe returns a channel of events for sessionID and a function that
// cancels the subscription. The channel is closed after a terminal event or
// on cancel.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
		})
	}
	return ch, cancel
}

// Notify hands ev to every subscriber without blocking. A full subscriber
// misses tick events; for any other event its oldest buffered event is
// dropped to make room.
func (h *Hub) Notify(_ context.Context, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[ev.SessionID]
	for ch := range set {
		select {
		case ch <- ev:
			continue
		default:
		}
		if ev.Type == EventTick {
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}

	if ev.Type.Terminal() {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, ev.SessionID)
	}
}

// Close ends every subscription. Later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
}

// Subscribers returns the number of open subscriptions for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
