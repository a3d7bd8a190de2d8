package worker

import (
	"context"
	"log"
	"time"
)

type SessionStore interface {
	SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired session registry entries so the
// registry only grows with live tokens.
type Sweeper struct {
	store    SessionStore
	interval time.Duration
}

func NewSweeper(store SessionStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, interval: interval}
}

// Run sweeps on the configured interval until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	count, err := s.store.SweepExpiredSessions(sweepCtx, time.Now())
	if err != nil {
		log.Printf("session sweep error: %v", err)
		return
	}
	if count > 0 {
		log.Printf("session sweep removed %d expired tokens", count)
	}
}
