// Package sweeper periodically clears password-reset state whose expiry has
// passed. Redemption already rejects expired tokens; this only keeps the
// credential store tidy.
package sweeper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geocoder89/sitehub/internal/observability"
)

type Store interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	Interval time.Duration
	// Timeout bounds a single sweep.
	Timeout time.Duration
}

type Sweeper struct {
	cfg   Config
	store Store
	log   *slog.Logger
	prom  *observability.Prom
	stats *observability.SweepStats
	now   func() time.Time

	ready atomic.Bool
}

func New(cfg Config, store Store, log *slog.Logger, prom *observability.Prom, stats *observability.SweepStats) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	if stats == nil {
		stats = observability.NewSweepStats()
	}

	return &Sweeper{cfg: cfg, store: store, log: log, prom: prom, stats: stats, now: time.Now}
}

// Run sweeps once straight away and then every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.ready.Store(true)
	defer s.ready.Store(false)

	s.log.InfoContext(ctx, "sweeper started", "interval", s.cfg.Interval.String())

	_, _ = s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper received shutdown signal")
			return nil

		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

// SweepOnce clears every reset token that expired before now.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := s.now()
	cleared, err := s.store.ClearExpiredResetTokens(ctx, start.UTC())
	elapsed := time.Since(start)

	s.stats.Observe(cleared, elapsed, err, start)

	if err != nil {
		s.record("error", 0)
		s.log.ErrorContext(ctx, "reset sweep failed", "err", err)
		return 0, err
	}

	s.record("ok", cleared)
	if cleared > 0 {
		s.log.InfoContext(ctx, "expired reset tokens cleared", "count", cleared, "duration_ms", elapsed.Milliseconds())
	}
	return cleared, nil
}

func (s *Sweeper) Ready() bool {
	return s.ready.Load()
}

func (s *Sweeper) Stats() observability.SweepStatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Sweeper) record(result string, cleared int64) {
	if s.prom == nil {
		return
	}
	s.prom.SweepRuns.WithLabelValues(result).Inc()
	if cleared > 0 {
		s.prom.SweepCleared.Add(float64(cleared))
	}
}
