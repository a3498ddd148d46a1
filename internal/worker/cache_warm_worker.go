package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/degree-audit/internal/model"
)

// Warmer loads catalog tables into the cache.
type Warmer interface {
	Prewarm(ctx context.Context) model.CacheWarmResult
}

// CacheWarmWorker periodically re-warms catalog tables whose cache entries
// have expired, so audits keep reading from Redis.
type CacheWarmWorker struct {
	warmer   Warmer
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// NewCacheWarmWorker creates a new CacheWarmWorker. Each pass is bounded by
// timeout.
func NewCacheWarmWorker(warmer Warmer, interval, timeout time.Duration, log zerolog.Logger) *CacheWarmWorker {
	return &CacheWarmWorker{
		warmer:   warmer,
		interval: interval,
		timeout:  timeout,
		log:      log.With().Str("component", "cache_warm_worker").Logger(),
	}
}

// Start runs until ctx is cancelled. Call in a goroutine. A non-positive
// interval returns immediately.
func (w *CacheWarmWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("Worker disabled")
		return
	}
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *CacheWarmWorker) runOnce(ctx context.Context) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	res := w.warmer.Prewarm(ctx)

	ev := w.log.Debug()
	if len(res.Failed) > 0 {
		ev = w.log.Warn().Strs("failed", res.Failed)
	}
	ev.Int("warmed", res.Warmed).
		Int("missing", len(res.Missing)).
		Dur("took", time.Since(start)).
		Msg("Catalog cache re-warmed")
}
