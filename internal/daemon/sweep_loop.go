package daemon

import (
	"context"
	"time"

	"github.com/dgadling/ompd/internal/logging"
)

// sweepLoop runs the backfill sweeper on a fixed cadence, retrying sooner
// after a sweep-level failure. Per-session failures are recorded by the
// sweeper itself and do not shorten the cadence.
func (d *Daemon) sweepLoop(ctx context.Context) {
	interval := time.Duration(d.cfg.Workflow.SweepIntervalSeconds) * time.Second
	retry := time.Duration(d.cfg.Workflow.ErrorRetryIntervalSeconds) * time.Second

	delay := interval
	if d.cfg.Workflow.BackfillOnStartup {
		delay = d.runSweep(ctx, interval, retry)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			timer.Reset(d.runSweep(ctx, interval, retry))
		}
	}
}

// runSweep executes one sweep and returns the delay before the next one.
func (d *Daemon) runSweep(ctx context.Context, interval, retry time.Duration) time.Duration {
	res, err := d.sweeper.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.logger.Error("sweep failed", logging.Error(err))
		}
		return retry
	}
	if res.Completed > 0 || res.Failed > 0 || res.Pruned > 0 {
		d.logger.Info("sweep results",
			logging.Int("completed", res.Completed),
			logging.Int("failed", res.Failed),
			logging.Int("pruned", res.Pruned))
	}
	return interval
}
