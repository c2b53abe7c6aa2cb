package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rump-sv/unfallhilfe/internal/domain"
	"github.com/rump-sv/unfallhilfe/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond
	defaultLimit   = 50
	maxLimit       = 500
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serialises writers to keep SQLITE_BUSY rare
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS visitors (
		user_id TEXT PRIMARY KEY,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visitors_last_seen ON visitors(last_seen_at);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetVisitor retrieves a visitor by ID.
func (s *SQLiteStore) GetVisitor(ctx context.Context, userID string) (*domain.Visitor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, last_seen_at, created_at FROM visitors WHERE user_id = ?`, userID)

	var v domain.Visitor
	var lastSeen, createdAt int64
	err := row.Scan(&v.UserID, &lastSeen, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan visitor row: %w", err)
	}

	v.LastSeenAt = time.Unix(lastSeen, 0)
	v.CreatedAt = time.Unix(createdAt, 0)
	return &v, nil
}

// UpsertVisitor creates or refreshes a visitor record.
func (s *SQLiteStore) UpsertVisitor(ctx context.Context, v *domain.Visitor) error {
	query := `
	INSERT INTO visitors (user_id, last_seen_at, created_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		last_seen_at = excluded.last_seen_at`

	return s.execWithRetry(ctx, "upsert visitor", query,
		v.UserID, v.LastSeenAt.Unix(), v.CreatedAt.Unix())
}

// UpdateLastSeen updates the last_seen_at timestamp for a visitor.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`UPDATE visitors SET last_seen_at = ? WHERE user_id = ?`, lastSeen.Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}
	return nil
}

// DeleteStaleVisitors removes visitors inactive for longer than ttl.
func (s *SQLiteStore) DeleteStaleVisitors(ctx context.Context, ttl time.Duration) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE last_seen_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("delete stale visitors: %w", err)
	}
	return result.RowsAffected()
}

// RecordLead appends a notification attempt to the ledger.
func (s *SQLiteStore) RecordLead(ctx context.Context, lead *domain.Lead) error {
	query := `
	INSERT INTO leads (id, user_id, session_id, model, transcript, status, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var errText interface{}
	if lead.Error != "" {
		errText = lead.Error
	}

	return s.execWithRetry(ctx, "record lead", query,
		lead.ID, lead.UserID, lead.SessionID, lead.Model,
		lead.Transcript, string(lead.Status), errText, lead.CreatedAt.Unix())
}

// ListLeads returns the most recent ledger entries, newest first.
func (s *SQLiteStore) ListLeads(ctx context.Context, limit int) ([]*domain.Lead, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, session_id, model, transcript, status, error, created_at
		FROM leads ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close leads rows", "error", closeErr)
		}
	}()

	var leads []*domain.Lead
	for rows.Next() {
		var lead domain.Lead
		var status string
		var errText sql.NullString
		var createdAt int64

		if err := rows.Scan(
			&lead.ID, &lead.UserID, &lead.SessionID, &lead.Model,
			&lead.Transcript, &status, &errText, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}

		lead.Status = domain.LeadStatus(status)
		lead.Error = errText.String
		lead.CreatedAt = time.Unix(createdAt, 0)
		leads = append(leads, &lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// execWithRetry runs a write with exponential backoff on SQLITE_BUSY and
// "database is locked" errors.
func (s *SQLiteStore) execWithRetry(ctx context.Context, op, query string, args ...interface{}) error {
	var err error
	for i := 0; i < writeRetries; i++ {
		err = s.execOnce(ctx, query, args...)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == writeRetries-1 {
			break
		}

		delay := writeBaseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite write conflict, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *SQLiteStore) execOnce(ctx context.Context, query string, args ...interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
