// Package intake drives a lead-intake conversation turn by turn and mails the
// office once the assistant signals that the required fields are captured.
package intake

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rump-sv/unfallhilfe/internal/dialogue"
	"github.com/rump-sv/unfallhilfe/internal/marker"
	"github.com/rump-sv/unfallhilfe/internal/transcript"
)

// State is the position of a session in the turn cycle.
type State string

const (
	// StateAwaitingInput is the resting state between turns.
	StateAwaitingInput State = "AWAITING_INPUT"
	// StateProcessing covers the model round-trip and notification.
	StateProcessing State = "PROCESSING"
	// StateDone is terminal and only reached when the session is ended.
	StateDone State = "DONE"
)

// Session is the per-conversation state. It is owned by a Manager and only
// mutated by the Controller while holding mu.
type Session struct {
	ID     string
	UserID string

	mu         sync.Mutex
	transcript *transcript.Store
	dialogue   dialogue.Session
	notified   bool
	state      State
	createdAt  time.Time
	lastActive atomic.Int64 // unix nanos, read without mu by the reaper
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	ID        string
	UserID    string
	State     State
	Notified  bool
	CreatedAt time.Time
	Turns     []transcript.Turn
}

// RenderedTurns returns the turns with the sentinel removed, for display.
func (s Snapshot) RenderedTurns() []transcript.Turn {
	out := make([]transcript.Turn, len(s.Turns))
	for i, t := range s.Turns {
		t.Text = marker.Strip(t.Text)
		out[i] = t
	}
	return out
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.ID,
		UserID:    s.UserID,
		State:     s.state,
		Notified:  s.notified,
		CreatedAt: s.createdAt,
		Turns:     s.transcript.All(),
	}
}

// Notified reports whether the office has been mailed for this session.
func (s *Session) Notified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notified
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch(t time.Time) {
	s.lastActive.Store(t.UnixNano())
}

// end moves the session to DONE. It waits for an in-flight turn to finish.
func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDone
}
