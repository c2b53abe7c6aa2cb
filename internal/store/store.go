// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/rump-sv/unfallhilfe/internal/domain"
)

// Repository persists visitors and the lead dispatch ledger.
// Conversation state itself is never persisted.
type Repository interface {
	// GetVisitor retrieves a visitor by ID. A missing visitor is (nil, nil).
	GetVisitor(ctx context.Context, userID string) (*domain.Visitor, error)

	// UpsertVisitor creates or refreshes a visitor record.
	UpsertVisitor(ctx context.Context, visitor *domain.Visitor) error

	// UpdateLastSeen updates the last_seen_at timestamp for a visitor.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// DeleteStaleVisitors removes visitors inactive for longer than ttl.
	DeleteStaleVisitors(ctx context.Context, ttl time.Duration) (int64, error)

	// RecordLead appends a notification attempt to the ledger.
	RecordLead(ctx context.Context, lead *domain.Lead) error

	// ListLeads returns the most recent ledger entries, newest first.
	ListLeads(ctx context.Context, limit int) ([]*domain.Lead, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
