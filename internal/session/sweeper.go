package session

import (
	"context"
	"time"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/logger"
)

// Sweeper periodically deletes expired sessions. The same ExpireAll
// operation backs the admin-triggered sweep command.
type Sweeper struct {
	store    Store
	interval time.Duration
}

// NewSweeper builds a sweeper running at the given interval.
func NewSweeper(store Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval}
}

// Run blocks until the context is done, sweeping once per interval.
func (w *Sweeper) Run(ctx context.Context) {
	logger.Store.Info("session sweeper started",
		slog.String("event", "sweep.start"),
		slog.Duration("interval", w.interval),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Store.Info("session sweeper stopped",
				slog.String("event", "sweep.stop"),
			)
			return
		case <-ticker.C:
			start := time.Now()
			n, err := w.store.ExpireAll(ctx)
			if err != nil {
				logger.Store.Error("session sweep failed",
					slog.String("event", "sweep.run"),
					slog.String("err", err.Error()),
				)
				continue
			}
			if n > 0 {
				logger.Store.Info("expired sessions removed",
					slog.String("event", "sweep.run"),
					slog.Int("count", n),
					slog.Duration("duration", logger.RoundMS(time.Since(start))),
				)
			}
		}
	}
}
