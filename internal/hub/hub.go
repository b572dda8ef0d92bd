// Package hub fans session updates out to live subscribers.
package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/park285/chessx/internal/obslog"
	"github.com/park285/chessx/internal/session"
)

const defaultBuffer = 8

type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]chan *session.Session
	nextID uint64
	buffer int
	closed bool
}

func New(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[uint64]chan *session.Session), buffer: buffer}
}

// Subscribe registers a listener. The returned cancel func must be called once the
// caller stops reading; it closes the channel.
func (h *Hub) Subscribe() (<-chan *session.Session, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan *session.Session, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers s to every subscriber. A subscriber whose buffer is full misses
// the update; the next one carries the full state anyway.
func (h *Hub) Publish(s *session.Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- s:
		default:
			obslog.L().Debug("hub_drop", zap.Uint64("subscriber", id), zap.Int64("revision", s.Revision))
		}
	}
}

// Len is the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
