package inject

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ReapStore is the slice of the database the reaper needs.
// Implemented by *database.DB.
type ReapStore interface {
	ReapStaleInjections(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reaper periodically fails injection rows stuck in processing, covering
// provider calls that died without a status write.
type Reaper struct {
	store     ReapStore
	interval  time.Duration
	olderThan time.Duration
	log       zerolog.Logger
}

func NewReaper(store ReapStore, interval, olderThan time.Duration, log zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if olderThan <= 0 {
		olderThan = 2 * time.Minute
	}
	return &Reaper{
		store:     store,
		interval:  interval,
		olderThan: olderThan,
		log:       log.With().Str("component", "inject-reaper").Logger(),
	}
}

// Start runs the reap loop until the context is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := r.store.ReapStaleInjections(ctx, r.olderThan)
				if err != nil {
					if ctx.Err() == nil {
						r.log.Error().Err(err).Msg("failed to reap stale injections")
					}
					continue
				}
				if n > 0 {
					r.log.Warn().Int64("count", n).Msg("reaped stale injections")
				}
			}
		}
	}()
}
