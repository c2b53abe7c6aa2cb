package intake

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager owns the live sessions, keyed by visitor and browser tab.
// Sessions never share state with each other.
type Manager struct {
	controller *Controller

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty registry backed by controller.
func NewManager(controller *Controller) *Manager {
	return &Manager{
		controller: controller,
		sessions:   make(map[string]*Session),
	}
}

func sessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// Get returns the live session or nil.
func (m *Manager) Get(userID, sessionID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionKey(userID, sessionID)]
}

// GetOrCreate returns the live session, starting a new one on first contact.
func (m *Manager) GetOrCreate(ctx context.Context, userID, sessionID string) (*Session, error) {
	if s := m.Get(userID, sessionID); s != nil {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, sessionID)
	if s, ok := m.sessions[key]; ok {
		return s, nil
	}
	s, err := m.controller.NewSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	m.sessions[key] = s
	return s, nil
}

// Submit forwards a message to the controller for the given session.
func (m *Manager) Submit(ctx context.Context, s *Session, text string) (Reply, error) {
	return m.controller.Submit(ctx, s, text)
}

// End moves the session to DONE and forgets it. It reports whether a session existed.
func (m *Manager) End(userID, sessionID string) bool {
	m.mu.Lock()
	key := sessionKey(userID, sessionID)
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if !ok {
		return false
	}
	m.controller.endSession(s, "closed")
	return true
}

// Reap ends sessions idle for longer than ttl and returns how many it ended.
func (m *Manager) Reap(now time.Time, ttl time.Duration) int {
	m.mu.RLock()
	var expired []string
	for key, s := range m.sessions {
		if now.Sub(s.idleSince()) > ttl {
			expired = append(expired, key)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, key := range expired {
		m.mu.Lock()
		s, ok := m.sessions[key]
		if ok && now.Sub(s.idleSince()) > ttl {
			delete(m.sessions, key)
		} else {
			ok = false
		}
		m.mu.Unlock()

		if ok {
			m.controller.endSession(s, "idle")
			ended++
		}
	}
	if ended > 0 {
		slog.Info("Reaped idle intake sessions", "count", ended, "ttl", ttl)
	}
	return ended
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
