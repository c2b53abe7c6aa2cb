package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rump-sv/unfallhilfe/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "leads.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestVisitorLifecycle(t *testing.T) {
	t.Parallel()

	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetVisitor(ctx, "anon_missing")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for missing visitor, got (%v, %v)", got, err)
	}

	now := time.Now()
	if err := repo.UpsertVisitor(ctx, &domain.Visitor{UserID: "anon_1", LastSeenAt: now, CreatedAt: now}); err != nil {
		t.Fatalf("UpsertVisitor failed: %v", err)
	}

	later := now.Add(time.Hour)
	if err := repo.UpdateLastSeen(ctx, "anon_1", later); err != nil {
		t.Fatalf("UpdateLastSeen failed: %v", err)
	}

	got, err = repo.GetVisitor(ctx, "anon_1")
	if err != nil || got == nil {
		t.Fatalf("GetVisitor failed: %v", err)
	}
	if got.LastSeenAt.Unix() != later.Unix() {
		t.Fatalf("expected last_seen %d, got %d", later.Unix(), got.LastSeenAt.Unix())
	}
	if got.CreatedAt.Unix() != now.Unix() {
		t.Fatalf("created_at must not change, got %d", got.CreatedAt.Unix())
	}
}

func TestDeleteStaleVisitors(t *testing.T) {
	t.Parallel()

	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	old := now.Add(-48 * time.Hour)
	if err := repo.UpsertVisitor(ctx, &domain.Visitor{UserID: "anon_old", LastSeenAt: old, CreatedAt: old}); err != nil {
		t.Fatalf("UpsertVisitor failed: %v", err)
	}
	if err := repo.UpsertVisitor(ctx, &domain.Visitor{UserID: "anon_new", LastSeenAt: now, CreatedAt: now}); err != nil {
		t.Fatalf("UpsertVisitor failed: %v", err)
	}

	deleted, err := repo.DeleteStaleVisitors(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteStaleVisitors failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 stale visitor deleted, got %d", deleted)
	}
	if v, _ := repo.GetVisitor(ctx, "anon_new"); v == nil {
		t.Fatal("expected fresh visitor to survive")
	}
}

func TestRecordAndListLeads(t *testing.T) {
	t.Parallel()

	repo := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	leads := []*domain.Lead{
		{ID: "l1", UserID: "anon_1", SessionID: "tab-1", Model: "gemini-2.5-flash", Transcript: "KUNDE: Hallo\n", Status: domain.LeadFailed, Error: "535 auth", CreatedAt: now.Add(-time.Minute)},
		{ID: "l2", UserID: "anon_1", SessionID: "tab-1", Model: "gemini-2.5-flash", Transcript: "KUNDE: Hallo\n", Status: domain.LeadSent, CreatedAt: now},
	}
	for _, l := range leads {
		if err := repo.RecordLead(ctx, l); err != nil {
			t.Fatalf("RecordLead failed: %v", err)
		}
	}

	got, err := repo.ListLeads(ctx, 10)
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(got))
	}
	if got[0].ID != "l2" || !got[0].Delivered() {
		t.Fatalf("expected newest sent lead first, got %+v", got[0])
	}
	if got[1].Error != "535 auth" || got[1].Delivered() {
		t.Fatalf("expected failed lead with error, got %+v", got[1])
	}

	limited, err := repo.ListLeads(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d (%v)", len(limited), err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
