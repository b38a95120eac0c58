package topup

import (
	"context"
	"time"

	"cashbox/internal/logger"
	"cashbox/internal/metrics"
)

// Sweeper cancels pending top-ups whose payment window has elapsed.
type Sweeper struct {
	repo     Repository
	ttl      time.Duration
	interval time.Duration
}

func NewSweeper(repo Repository, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		ttl:      ttl,
		interval: interval,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	logger.Info("topup sweeper started", "ttl", s.ttl.String(), "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("topup sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.ttl)

	n, err := s.repo.ExpirePending(ctx, cutoff)
	if err != nil {
		logger.WithError(err).Error("topup sweep failed")
		return
	}
	if n > 0 {
		metrics.TopupsExpiredTotal.Add(float64(n))
		logger.Info("expired stale topups", "count", n)
	}
}
