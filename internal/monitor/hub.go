package monitor

import (
	"sync"

	"minerwatch/internal/model"
)

// Hub holds the latest snapshot and fans new ones out to subscribers.
// Subscribers that fall behind only ever see the most recent snapshot.
type Hub struct {
	state func() State

	mu     sync.RWMutex
	latest *model.Snapshot
	subs   map[int]chan *model.Snapshot
	nextID int
}

func newHub(state func() State) *Hub {
	return &Hub{
		state: state,
		subs:  make(map[int]chan *model.Snapshot),
	}
}

// Latest returns the most recent snapshot, nil before the first cycle
func (h *Hub) Latest() *model.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// State returns the loop state name
func (h *Hub) State() string {
	return h.state().String()
}

// Subscribe registers a subscriber. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan *model.Snapshot, func()) {
	ch := make(chan *model.Snapshot, 1)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// publish stores snap as latest and hands it to every subscriber
func (h *Hub) publish(snap *model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = snap
	for _, ch := range h.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale snapshot the subscriber has not read yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// subscribers returns the number of active subscribers
func (h *Hub) subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
