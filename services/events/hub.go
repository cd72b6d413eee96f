package events

import (
	"sync"

	"tidybook/models"
)

// Hub is an in-process publish/subscribe channel for chat events, consumed by
// the SSE endpoint. Slow subscribers drop events instead of blocking the
// publisher.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan models.ChatEvent
}

func NewHub() *Hub {
	return &Hub{subs: map[int]chan models.ChatEvent{}}
}

// Publish fans the event out to every subscriber without blocking.
func (h *Hub) Publish(event models.ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a listener and returns its channel plus an unsubscribe
// function. Unsubscribe closes the channel.
func (h *Hub) Subscribe() (<-chan models.ChatEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan models.ChatEvent, 16)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}
