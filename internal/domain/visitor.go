// Package domain contains the persisted records of the intake service.
package domain

import (
	"time"
)

// Visitor is an anonymous browser identified by its cookie.
type Visitor struct {
	UserID     string    `json:"user_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Idle returns how long the visitor has been inactive at now.
func (v *Visitor) Idle(now time.Time) time.Duration {
	d := now.Sub(v.LastSeenAt)
	if d < 0 {
		return 0
	}
	return d
}
