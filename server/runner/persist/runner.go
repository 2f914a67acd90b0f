// Package persist flushes the dirty state sections in the background.
package persist

import (
	"context"
	"log/slog"
	"time"

	"github.com/thenoname-gurl/Brain/store"
)

// DefaultInterval is how often pending sections are written.
const DefaultInterval = 5 * time.Second

// shutdownTimeout bounds the final flush after the runner is stopped.
const shutdownTimeout = 10 * time.Second

type Runner struct {
	store    *store.Store
	interval time.Duration
	onFlush  func(saved int, err error)
}

// NewRunner creates a persistence runner. onFlush, when set, observes every
// flush that had something to write.
func NewRunner(s *store.Store, interval time.Duration, onFlush func(saved int, err error)) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		store:    s,
		interval: interval,
		onFlush:  onFlush,
	}
}

// Run flushes on every tick until ctx is done, then flushes one last time.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			// ctx is already done; the final flush gets its own deadline.
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			r.RunOnce(flushCtx)
			cancel()
			slog.Info("persist runner stopped")
			return
		}
	}
}

// RunOnce writes the pending sections once.
func (r *Runner) RunOnce(ctx context.Context) {
	r.store.Lock()
	pending := len(r.store.Pending())
	r.store.Unlock()
	if pending == 0 {
		return
	}

	saved, err := r.store.Flush(ctx)
	if r.onFlush != nil {
		r.onFlush(saved, err)
	}
	if err != nil {
		slog.Error("failed to flush state", "saved", saved, "error", err)
		return
	}
	slog.Debug("state flushed", "sections", saved)
}
