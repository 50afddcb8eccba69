// Package session tracks which users are in the middle of a command.
package session

import (
	"sort"
	"sync"
	"time"
)

type State string

const (
	StateStarted State = "started"

	StateAwaitingEnrollment      State = "awaiting_enrollment"
	StateAwaitingConfirmation    State = "awaiting_confirmation"
	StateAwaitingEmail           State = "awaiting_email"
	StateAwaitingRegisterConsent State = "awaiting_register_consent"
	StateAwaitingName            State = "awaiting_name"
	StateAwaitingPhone           State = "awaiting_phone"
	StatePersisting              State = "persisting"

	StateAwaitingIDs   State = "awaiting_ids"
	StateAwaitingGroup State = "awaiting_group"
	StateDispatching   State = "dispatching"
)

// Session уходит наружу через /stats, поэтому id пользователя в JSON не пишем.
type Session struct {
	UserID    string    `json:"-"`
	Command   string    `json:"command"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Guard — не больше одной активной команды на пользователя. Очереди нет:
// вторая команда просто отклоняется.
type Guard struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewGuard() *Guard {
	return &Guard{sessions: map[string]*Session{}, now: time.Now}
}

// TryAcquire registers a session for userID and reports false if one is already active.
func (g *Guard) TryAcquire(userID, command string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.sessions[userID]; busy {
		return false
	}
	g.sessions[userID] = &Session{
		UserID:    userID,
		Command:   command,
		State:     StateStarted,
		StartedAt: g.now(),
	}
	return true
}

func (g *Guard) Release(userID string) {
	g.mu.Lock()
	delete(g.sessions, userID)
	g.mu.Unlock()
}

// Advance записывает текущий шаг сценария. Для неактивного пользователя ничего не делает.
func (g *Guard) Advance(userID string, st State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[userID]; ok {
		s.State = st
	}
}

func (g *Guard) Active(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.sessions[userID]
	return ok
}

func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Snapshot returns copies of the active sessions, oldest first.
func (g *Guard) Snapshot() []Session {
	g.mu.Lock()
	out := make([]Session, 0, len(g.sessions))
	for _, s := range g.sessions {
		out = append(out, *s)
	}
	g.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
