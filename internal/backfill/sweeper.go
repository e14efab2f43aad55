package backfill

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/google/uuid"

	"github.com/dgadling/ompd/internal/archive"
	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/config"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/metadata"
	"github.com/dgadling/ompd/internal/movie"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// Event reports sweep progress for one session step.
type Event struct {
	Session string
	State   catalog.State
	Index   int
	Total   int
	Err     error
}

// Result summarizes a completed sweep.
type Result struct {
	Discovered int
	Registered int
	Completed  int
	Failed     int
	Pruned     int
}

// Sweeper moves every non-terminal session toward the compressed state.
type Sweeper struct {
	cfg      *config.Config
	store    *catalog.Store
	asm      *movie.Assembler
	agg      *metadata.Aggregator
	archiver *archive.Archiver
	logger   *slog.Logger

	// Progress, when set, is invoked after every per-session step.
	Progress func(Event)
}

// NewSweeper constructs a Sweeper using the given encoder for movie
// assembly.
func NewSweeper(cfg *config.Config, store *catalog.Store, encoder movie.Encoder, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.NewComponentLogger(logger, "backfill")
	return &Sweeper{
		cfg:      cfg,
		store:    store,
		asm:      movie.NewAssembler(cfg, store, encoder, logger),
		agg:      metadata.NewAggregator(cfg.Capture.ShotType, logger),
		archiver: archive.NewArchiver(cfg.Capture.ShotType, logger),
		logger:   logger,
	}
}

// Run performs one full sweep: discover, register, advance, prune.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	logger := s.logger.With(logging.String(logging.FieldRunID, runID))

	var res Result
	registered, discovered, err := s.registerDiscovered(ctx, logger)
	if err != nil {
		return res, err
	}
	res.Discovered = discovered
	res.Registered = registered

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return res, err
	}
	logger.Info("sweep starting",
		logging.Int("pending", len(pending)),
		logging.Int("registered", registered))

	for i, sess := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		err := s.advance(ctx, sess)
		s.emit(Event{Session: sess.Key, State: sess.State, Index: i + 1, Total: len(pending), Err: err})
		if err != nil {
			res.Failed++
			logger.Error("session failed",
				logging.String(logging.FieldSession, sess.Key),
				logging.Error(err))
			if setErr := s.store.SetError(ctx, sess.ID, err.Error()); setErr != nil {
				logger.Warn("failed to record session error", logging.Error(setErr))
			}
			continue
		}
		res.Completed++
	}

	pruned, err := s.prune(ctx, logger)
	if err != nil {
		logger.Warn("retention pruning failed", logging.Error(err))
	}
	res.Pruned = pruned

	logger.Info("sweep finished",
		logging.Int("completed", res.Completed),
		logging.Int("failed", res.Failed),
		logging.Int("pruned", res.Pruned))
	return res, nil
}

// registerDiscovered catalogs session directories that predate the
// catalog. They enter as closed legacy sessions since no live writer owns
// them.
func (s *Sweeper) registerDiscovered(ctx context.Context, logger *slog.Logger) (int, int, error) {
	dirs, err := sessiondir.Discover(s.cfg.Paths.ShotDir)
	if err != nil {
		return 0, 0, fmt.Errorf("discover sessions: %w", err)
	}
	registered := 0
	for _, dir := range dirs {
		if _, err := s.store.GetByPath(ctx, dir.Path); err == nil {
			continue
		} else if !errors.Is(err, catalog.ErrNotFound) {
			return registered, len(dirs), err
		}
		if _, err := s.store.Register(ctx, dir.Key(), dir.Path, catalog.StateClosed, true); err != nil {
			return registered, len(dirs), fmt.Errorf("register %s: %w", dir.Key(), err)
		}
		registered++
		logger.Info("registered legacy session",
			logging.String(logging.FieldSession, dir.Key()),
			logging.String(logging.FieldDirectory, dir.Path))
	}
	return registered, len(dirs), nil
}

// advance walks one session forward until it is compressed or a step
// fails. Each step transitions exactly one state so a crash resumes where
// it stopped.
func (s *Sweeper) advance(ctx context.Context, sess *catalog.Session) error {
	for !sess.State.Terminal() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var err error
		switch sess.State {
		case catalog.StateClosed:
			err = s.generateMetadata(ctx, sess)
		case catalog.StateMetadataReady:
			err = s.buildMovie(ctx, sess)
		case catalog.StateMovieBuilt:
			err = s.archiveSession(ctx, sess)
		default:
			return fmt.Errorf("session %s in unexpected state %s", sess.Key, sess.State)
		}
		if err != nil {
			return err
		}
		fresh, err := s.store.GetByID(ctx, sess.ID)
		if err != nil {
			return err
		}
		*sess = *fresh
	}
	return nil
}

func (s *Sweeper) generateMetadata(ctx context.Context, sess *catalog.Session) error {
	err := sessiondir.WithLock(sess.DirPath, func() error {
		_, loadErr := s.agg.Load(sess.DirPath)
		return loadErr
	})
	if err != nil {
		return err
	}
	return s.store.Transition(ctx, sess.ID, catalog.StateClosed, catalog.StateMetadataReady)
}

func (s *Sweeper) buildMovie(ctx context.Context, sess *catalog.Session) error {
	if err := s.asm.Assemble(ctx, sess); err != nil {
		return err
	}
	return s.store.Transition(ctx, sess.ID, catalog.StateMetadataReady, catalog.StateMovieBuilt)
}

func (s *Sweeper) archiveSession(ctx context.Context, sess *catalog.Session) error {
	err := sessiondir.WithLock(sess.DirPath, func() error {
		_, archiveErr := s.archiver.ArchiveSession(sess.DirPath)
		return archiveErr
	})
	if err != nil {
		return err
	}
	return s.store.Transition(ctx, sess.ID, catalog.StateMovieBuilt, catalog.StateCompressed)
}

func (s *Sweeper) emit(event Event) {
	if s.Progress != nil {
		s.Progress(event)
	}
}
