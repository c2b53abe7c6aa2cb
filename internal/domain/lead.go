package domain

import (
	"time"
)

// LeadStatus is the outcome of a notification attempt.
type LeadStatus string

const (
	// LeadSent means the transcript mail was accepted by the SMTP server.
	LeadSent LeadStatus = "sent"
	// LeadFailed means submission failed; the session may try again later.
	LeadFailed LeadStatus = "failed"
)

// Lead records one attempt to notify the office about a conversation.
type Lead struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	SessionID  string     `json:"session_id"`
	Model      string     `json:"model"`
	Transcript string     `json:"transcript"`
	Status     LeadStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Delivered reports whether the lead reached the office.
func (l *Lead) Delivered() bool {
	return l.Status == LeadSent
}
