// Package realtime turns store changes into live-query snapshots.
//
// Two pieces:
//
//   - Hub: an in-process fan-out of "something changed" signals, keyed by
//     topic (a collection name). The SQLite backend notifies it after every
//     successful write. MongoDB does not need it, since change streams
//     play the same role there.
//   - Run: the per-subscription loop. It fetches the initial snapshot, then
//     re-fetches after every change signal and hands the result to the
//     subscriber only when it differs from the last one delivered.
package realtime

import (
	"log/slog"
	"sync"
)

// Hub fans change signals out to listeners.
//
// Signals carry no payload; a listener re-runs its own query. Each listener
// channel has a buffer of one and Notify never blocks, so a burst of writes
// collapses into a single pending signal per listener.
type Hub struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
	logger    *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		listeners: make(map[string]map[chan struct{}]struct{}),
		logger:    logger,
	}
}

// Listen registers a listener on topic. The returned release function
// unregisters it and closes the channel; calling it more than once is fine.
func (h *Hub) Listen(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.listeners[topic]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.listeners[topic] = set
	}
	set[ch] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	h.logger.Debug("realtime listener added", slog.String("topic", topic), slog.Int("listeners", count))

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners[topic], ch)
			if len(h.listeners[topic]) == 0 {
				delete(h.listeners, topic)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, release
}

// Notify signals every listener of topic.
func (h *Hub) Notify(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.listeners[topic] {
		select {
		case ch <- struct{}{}:
		default: // a signal is already pending
		}
	}
}

// Listeners returns the number of listeners on topic.
func (h *Hub) Listeners(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[topic])
}
