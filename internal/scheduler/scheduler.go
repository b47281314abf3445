package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task now and then on each tick until ctx ends. Runs never
// overlap: ticks that arrive while the task runs are dropped and the next
// run starts one interval after the last one finished. Task errors are
// logged and do not stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			zap.L().Error("scheduled task failed", zap.String("task", name), zap.Error(err))
			return
		}
		zap.L().Info("scheduled task done", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}

	run()
	t.Reset(interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
		t.Reset(interval)
	}
}
