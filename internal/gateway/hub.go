package gateway

import (
	"sync"
	"time"

	"github.com/park285/minichess-arena/pkg/arenadto"
)

type subscriber struct {
	id int
	ch chan arenadto.LiveEvent
}

// Hub fans arena events out to live websocket subscribers, keyed by
// session. Publish never blocks; a subscriber that stops draining its
// channel loses events instead of stalling the game handlers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]subscriber)}
}

// Subscribe registers a listener for one session key and returns the
// event channel plus a cancel func that must be called when the
// listener goes away.
func (h *Hub) Subscribe(key string) (<-chan arenadto.LiveEvent, func()) {
	h.mu.Lock()
	h.nextID++
	sub := subscriber{id: h.nextID, ch: make(chan arenadto.LiveEvent, 16)}
	h.subs[key] = append(h.subs[key], sub)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		list := h.subs[key]
		for i, entry := range list {
			if entry.id == sub.id {
				h.subs[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers the event to every current subscriber of the key.
func (h *Hub) Publish(key string, event arenadto.LiveEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	list := make([]subscriber, len(h.subs[key]))
	copy(list, h.subs[key])
	h.mu.RUnlock()

	for _, entry := range list {
		select {
		case entry.ch <- event:
		default:
		}
	}
}

// Subscribers reports how many listeners a key currently has.
func (h *Hub) Subscribers(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}
