// Package transcript holds the ordered, append-only log of a conversation.
package transcript

import (
	"sync"
	"time"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	// RoleUser marks text typed by the customer.
	RoleUser Role = "user"
	// RoleAssistant marks text produced by the assistant, including the welcome line.
	RoleAssistant Role = "assistant"
)

// Turn is a single message. Text is stored raw, sentinel included.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Store is an append-only sequence of turns in conversational order.
type Store struct {
	mu    sync.RWMutex
	turns []Turn
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append adds a turn to the end of the transcript. A zero At is stamped with
// the current time.
func (s *Store) Append(turn Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// All returns a copy of every turn in insertion order.
func (s *Store) All() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
