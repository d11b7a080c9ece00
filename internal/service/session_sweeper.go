package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiredSessionDeleter removes sessions whose expiry is at or before now.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper periodically purges expired CAPTCHA sessions that were never
// presented again after expiry (Validate only deletes the ones it sees).
type SessionSweeper struct {
	store    ExpiredSessionDeleter
	interval time.Duration
	now      func() time.Time
}

func NewSessionSweeper(store ExpiredSessionDeleter, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionSweeper{store: store, interval: interval, now: time.Now}
}

// Start sweeps on every tick until ctx is cancelled.
func (w *SessionSweeper) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("session-sweeper: starting")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)
		case <-ctx.Done():
			log.Info().Msg("session-sweeper: stopping (context cancelled)")
			return
		}
	}
}

// Sweep runs a single purge and returns how many sessions were removed.
func (w *SessionSweeper) Sweep(ctx context.Context) int64 {
	n, err := w.store.DeleteExpired(ctx, w.now())
	if err != nil {
		log.Error().Err(err).Msg("session-sweeper: delete expired error")
		return 0
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("session-sweeper: expired sessions removed")
	}
	return n
}
