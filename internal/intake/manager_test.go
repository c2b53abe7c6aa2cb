package intake

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestManagerGetOrCreateIsolatesSessions(t *testing.T) {
	t.Parallel()

	starter := &fakeStarter{session: &scriptedSession{}}
	m := NewManager(NewController(starter, &fakeNotifier{}, nil, nil, nil))
	ctx := context.Background()

	a, err := m.GetOrCreate(ctx, "anon_1", "tab-1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	again, err := m.GetOrCreate(ctx, "anon_1", "tab-1")
	if err != nil || again != a {
		t.Fatalf("expected same session on second call, got %p vs %p (%v)", again, a, err)
	}
	b, err := m.GetOrCreate(ctx, "anon_1", "tab-2")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if b == a {
		t.Fatal("expected separate session per tab")
	}
	if starter.started != 2 || m.Len() != 2 {
		t.Fatalf("expected 2 started sessions, got started=%d len=%d", starter.started, m.Len())
	}
}

func TestManagerGetOrCreateDoesNotCacheFailure(t *testing.T) {
	t.Parallel()

	starter := &fakeStarter{err: errors.New("boom")}
	m := NewManager(NewController(starter, &fakeNotifier{}, nil, nil, nil))

	if _, err := m.GetOrCreate(context.Background(), "u", "s"); err == nil {
		t.Fatal("expected start failure")
	}
	if m.Len() != 0 {
		t.Fatal("failed session must not be registered")
	}
}

func TestManagerEnd(t *testing.T) {
	t.Parallel()

	m := NewManager(NewController(&fakeStarter{session: &scriptedSession{}}, &fakeNotifier{}, nil, nil, nil))
	s, err := m.GetOrCreate(context.Background(), "u", "s")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if !m.End("u", "s") {
		t.Fatal("expected End to find the session")
	}
	if s.State() != StateDone {
		t.Fatalf("expected DONE, got %s", s.State())
	}
	if m.Get("u", "s") != nil {
		t.Fatal("ended session must be forgotten")
	}
	if m.End("u", "s") {
		t.Fatal("second End must report no session")
	}
}

func TestManagerReapEndsIdleSessions(t *testing.T) {
	t.Parallel()

	m := NewManager(NewController(&fakeStarter{session: &scriptedSession{}}, &fakeNotifier{}, nil, nil, nil))
	ctx := context.Background()

	idle, _ := m.GetOrCreate(ctx, "u", "idle")
	active, _ := m.GetOrCreate(ctx, "u", "active")

	now := time.Now()
	idle.touch(now.Add(-2 * time.Hour))
	active.touch(now)

	if n := m.Reap(now, time.Hour); n != 1 {
		t.Fatalf("expected 1 reaped session, got %d", n)
	}
	if idle.State() != StateDone {
		t.Fatal("idle session must be DONE")
	}
	if m.Get("u", "active") == nil {
		t.Fatal("active session must survive")
	}
}

type fakePruner struct {
	calls int
	ttl   time.Duration
}

func (f *fakePruner) DeleteStaleVisitors(_ context.Context, ttl time.Duration) (int64, error) {
	f.calls++
	f.ttl = ttl
	return 3, nil
}

func TestSweepPrunesVisitors(t *testing.T) {
	t.Parallel()

	m := NewManager(NewController(&fakeStarter{session: &scriptedSession{}}, &fakeNotifier{}, nil, nil, nil))
	p := &fakePruner{}

	sweep(context.Background(), m, p, ReaperConfig{SessionTTL: time.Hour, VisitorTTL: 24 * time.Hour}, time.Now())
	if p.calls != 1 || p.ttl != 24*time.Hour {
		t.Fatalf("expected one prune with visitor ttl, got calls=%d ttl=%s", p.calls, p.ttl)
	}

	sweep(context.Background(), m, p, ReaperConfig{SessionTTL: time.Hour}, time.Now())
	if p.calls != 1 {
		t.Fatal("expected no prune without visitor ttl")
	}
}
