package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Sweeper removes sessions idle for longer than ttl.
type Sweeper struct {
	purger Purger
	ttl    time.Duration
	poll   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSweeper creates a Sweeper. If pollInterval is <= 0, it defaults to one
// minute.
func NewSweeper(purger Purger, ttl, pollInterval time.Duration) *Sweeper {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &Sweeper{
		purger: purger,
		ttl:    ttl,
		poll:   pollInterval,
		now:    time.Now,
		logger: slog.Default(),
	}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("session sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.poll):
		}
	}
}

// RunOnce deletes expired sessions and returns how many were removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	n, err := s.purger.PurgeBefore(ctx, s.now().Add(-s.ttl).UTC())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
	}
	return n, nil
}
