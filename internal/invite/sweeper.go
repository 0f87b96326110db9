package invite

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically persists the Expired status on long-dead Active
// invites. Pure storage hygiene: every read derives expiry live, so
// nothing depends on the sweeper running or ever having run.
type Sweeper struct {
	invites  InviteStore
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a new expiry sweeper.
func NewSweeper(invites InviteStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		invites:  invites,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.invites.MarkExpired(ctx, time.Now())
			if err != nil {
				s.logger.Error("invite expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("marked expired invites", "count", n)
			}
		}
	}
}
