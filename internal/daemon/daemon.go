package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"github.com/dgadling/ompd/internal/backfill"
	"github.com/dgadling/ompd/internal/capture"
	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/config"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/movie"
	"github.com/dgadling/ompd/internal/preflight"
)

// Daemon coordinates the capture loop and backfill sweeps and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *catalog.Store
	source  capture.Source
	sweeper *backfill.Sweeper

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, source capture.Source, encoder movie.Encoder, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || source == nil || encoder == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, source, encoder, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "ompd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		source:   source,
		sweeper:  backfill.NewSweeper(cfg, store, encoder, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, runs preflight, and launches the capture
// and sweep loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ompd instance is already running")
	}

	if err := d.preflight(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	// Register today's session before the first sweep can discover its
	// directory.
	sess, frames, err := d.openSession(runCtx, time.Now())
	if err != nil {
		d.logger.Warn("initial session open failed, will retry", logging.Error(err))
	}

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.captureLoop(runCtx, sess, frames)
	}()
	go func() {
		defer d.wg.Done()
		d.sweepLoop(runCtx)
	}()

	d.logger.Info("ompd daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts both loops and releases the daemon lock. It blocks until the
// loops have drained.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("ompd daemon stopped")
}

// Close stops the daemon and releases the catalog.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon loops are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

func (d *Daemon) preflight() error {
	results := preflight.RunAll(d.cfg)
	for _, result := range results {
		switch {
		case result.Passed:
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		case result.Warning:
			d.logger.Warn("preflight warning",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		}
	}
	blockers := preflight.Blockers(results)
	if len(blockers) == 0 {
		return nil
	}
	details := make([]string, 0, len(blockers))
	for _, blocker := range blockers {
		details = append(details, fmt.Sprintf("%s: %s", blocker.Name, blocker.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
}
