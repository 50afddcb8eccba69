package ws

import (
	"sync"
	"time"
)

type Conn interface {
	Send(msg Message) error
	Close() error
}

// Hub — подписчики ленты событий.
type Hub struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
	now   func() time.Time
}

func NewHub() *Hub {
	return &Hub{conns: make(map[Conn]struct{}), now: time.Now}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		_ = c.Send(msg) // best-effort
	}
}

// Publish implements service.EventPublisher.
func (h *Hub) Publish(kind, text string) {
	h.Broadcast(Message{
		Type:    kind,
		Payload: AuditPayload{Text: text, TSUnix: h.now().Unix()},
	})
}
