package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgadling/ompd/internal/capture"
	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/services"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// captureLoop writes one frame per interval into the current session,
// closing it and opening the next at the first tick past midnight. A
// wall-clock gap beyond max_sleep_seconds is backfilled with filler frames
// before capture resumes.
func (d *Daemon) captureLoop(ctx context.Context, sess *catalog.Session, frames *capture.Store) {
	interval := time.Duration(d.cfg.Capture.IntervalSeconds) * time.Second
	maxSleep := time.Duration(d.cfg.Capture.MaxSleepSeconds) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		now := time.Now()

		if sess == nil || sessiondir.Key(now) != sess.Key {
			if sess != nil {
				if err := d.closeSession(ctx, sess); err != nil {
					d.logger.Error("failed to close session",
						logging.String(logging.FieldSession, sess.Key),
						logging.Error(err))
				}
				sess, frames = nil, nil
			}
			var err error
			sess, frames, err = d.openSession(ctx, now)
			if err != nil {
				d.logger.Error("failed to open session", logging.Error(err))
			}
		}

		if frames != nil {
			if gap := now.Sub(lastTick); gap > maxSleep {
				if _, err := frames.HandleBlackout(gap); err != nil {
					d.logger.Warn("failed to fill sleep gap",
						logging.Duration("gap", gap),
						logging.Error(err))
				} else {
					d.logger.Info("filled sleep gap",
						logging.String(logging.FieldSession, sess.Key),
						logging.Duration("gap", gap))
				}
			}
			d.captureOnce(ctx, frames, interval)
		}
		lastTick = now

		select {
		case <-ctx.Done():
			// The open session survives restarts; the next start resumes
			// numbering from the directory contents.
			return
		case <-ticker.C:
		}
	}
}

func (d *Daemon) captureOnce(ctx context.Context, frames *capture.Store, interval time.Duration) {
	frame, err := d.source.Capture(ctx)
	switch {
	case ctx.Err() != nil:
		return
	case errors.Is(err, capture.ErrUnavailable):
		if _, blackoutErr := frames.HandleBlackout(interval); blackoutErr != nil {
			d.logger.Warn("failed to write blackout filler", logging.Error(blackoutErr))
		}
	case err != nil:
		d.logger.Warn("capture failed", logging.Error(err))
	default:
		if n, storeErr := frames.Store(frame); storeErr != nil {
			if errors.Is(storeErr, services.ErrFrameLoss) {
				d.logger.Warn("frame lost", logging.Int("frame", n), logging.Error(storeErr))
			} else {
				d.logger.Error("failed to store frame", logging.Error(storeErr))
			}
		}
	}
}

// openSession registers (or resumes) the session for the given date and
// prepares its frame store. The catalog row is created before the directory
// so a concurrent sweep never mistakes the new directory for a legacy one.
func (d *Daemon) openSession(ctx context.Context, now time.Time) (*catalog.Session, *capture.Store, error) {
	dir := sessiondir.ForDate(d.cfg.Paths.ShotDir, now)

	sess, err := d.store.GetByKey(ctx, dir.Key())
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		if sess, err = d.store.Register(ctx, dir.Key(), dir.Path, catalog.StateOpen, false); err != nil {
			return nil, nil, err
		}
		d.logger.Info("opened session", logging.String(logging.FieldSession, sess.Key))
	case err != nil:
		return nil, nil, err
	case sess.State != catalog.StateOpen:
		return nil, nil, fmt.Errorf("session %s already %s, capture suspended until the next day",
			sess.Key, sess.State)
	default:
		d.logger.Info("resumed session", logging.String(logging.FieldSession, sess.Key))
	}

	frames, err := capture.NewStore(d.cfg, d.logger, dir.Path)
	if err != nil {
		return nil, nil, err
	}
	return sess, frames, nil
}

// closeSession marks the session finished so the sweeper may take it.
func (d *Daemon) closeSession(ctx context.Context, sess *catalog.Session) error {
	if err := d.store.Transition(ctx, sess.ID, catalog.StateOpen, catalog.StateClosed); err != nil {
		return err
	}
	d.logger.Info("closed session", logging.String(logging.FieldSession, sess.Key))
	return nil
}
