package core

// scheduler.go runs history retention in the background. Each cycle deletes
// run records older than the retention window. A failed cycle is logged and
// retried on the next tick; it never stops the server.

import (
	"context"
	"log/slog"
	"time"
)

// PrunerConfig holds settings for the history pruner.
// Zero values fall back to the defaults below.
type PrunerConfig struct {
	Retention     time.Duration // Age after which records are deleted (default: 90 days)
	CheckInterval time.Duration // How often to run (default: 24h)
}

const (
	defaultHistoryRetention = 90 * 24 * time.Hour
	defaultPruneInterval    = 24 * time.Hour
)

func (c PrunerConfig) withDefaults() PrunerConfig {
	if c.Retention <= 0 {
		c.Retention = defaultHistoryRetention
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultPruneInterval
	}
	return c
}

// StartHistoryPruner prunes once immediately, then every CheckInterval,
// until ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartHistoryPruner(ctx context.Context, cfg PrunerConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history pruner started",
		"retention", cfg.Retention.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.pruneHistory(ctx, cfg.Retention)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, cfg.Retention)
		}
	}
}

// pruneHistory performs one retention cycle and returns the number removed.
func (s *Service) pruneHistory(ctx context.Context, retention time.Duration) int64 {
	start := time.Now()
	cutoff := s.now().Add(-retention)

	removed, err := s.history.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned run history",
		"records_removed", removed,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}
