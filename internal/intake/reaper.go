package intake

import (
	"context"
	"log/slog"
	"time"
)

// VisitorPruner deletes visitor records that have not been seen for ttl.
type VisitorPruner interface {
	DeleteStaleVisitors(ctx context.Context, ttl time.Duration) (int64, error)
}

// ReaperConfig controls the idle sweep.
type ReaperConfig struct {
	Interval   time.Duration
	SessionTTL time.Duration
	VisitorTTL time.Duration
}

const defaultReapInterval = time.Minute

// StartReaper runs a background goroutine that ends idle sessions and prunes
// stale visitors until ctx is cancelled.
func StartReaper(ctx context.Context, mgr *Manager, visitors VisitorPruner, cfg ReaperConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultReapInterval
	}
	ticker := time.NewTicker(cfg.Interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session reaper started", "interval", cfg.Interval, "session_ttl", cfg.SessionTTL)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, mgr, visitors, cfg, time.Now())
			case <-ctx.Done():
				slog.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, mgr *Manager, visitors VisitorPruner, cfg ReaperConfig, now time.Time) {
	if cfg.SessionTTL > 0 {
		mgr.Reap(now, cfg.SessionTTL)
	}

	if visitors == nil || cfg.VisitorTTL <= 0 {
		return
	}
	if deleted, err := visitors.DeleteStaleVisitors(ctx, cfg.VisitorTTL); err != nil {
		slog.Error("Session reaper failed to prune visitors", "error", err)
	} else if deleted > 0 {
		slog.Info("Session reaper pruned stale visitors", "count", deleted)
	}
}
