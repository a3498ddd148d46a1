package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/stemsi/degree-audit/internal/model"
)

type countingWarmer struct {
	calls    atomic.Int32
	deadline atomic.Bool
}

func (w *countingWarmer) Prewarm(ctx context.Context) model.CacheWarmResult {
	w.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		w.deadline.Store(true)
	}
	return model.CacheWarmResult{Warmed: 3, Missing: []string{}, Failed: []string{"broken"}}
}

func TestCacheWarmWorkerRunsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	warmer := &countingWarmer{}
	w := NewCacheWarmWorker(warmer, 5*time.Millisecond, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return warmer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.True(t, warmer.deadline.Load())
}

func TestCacheWarmWorkerDisabled(t *testing.T) {
	warmer := &countingWarmer{}
	w := NewCacheWarmWorker(warmer, 0, 0, zerolog.Nop())

	// returns without blocking
	w.Start(context.Background())
	assert.Zero(t, warmer.calls.Load())
}
