package movie

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"log/slog"

	"github.com/dgadling/ompd/internal/catalog"
	"github.com/dgadling/ompd/internal/config"
	"github.com/dgadling/ompd/internal/fileutil"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/metadata"
	"github.com/dgadling/ompd/internal/services"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// Assembler builds the normalized session movie from captured frames.
type Assembler struct {
	cfg     *config.Config
	store   *catalog.Store
	encoder Encoder
	logger  *slog.Logger
}

// NewAssembler constructs an Assembler backed by the given encoder.
func NewAssembler(cfg *config.Config, store *catalog.Store, encoder Encoder, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		cfg:     cfg,
		store:   store,
		encoder: encoder,
		logger:  logging.NewComponentLogger(logger, "movie"),
	}
}

// Assemble encodes the session's frames into its dated movie file. It is
// idempotent: if the movie already exists and the session has advanced past
// encoding, nothing runs. The caller is responsible for advancing the
// session state afterwards.
func (a *Assembler) Assemble(ctx context.Context, sess *catalog.Session) error {
	date, err := sessiondir.ParseKey(sess.Key)
	if err != nil {
		return services.Wrap(services.ErrEncodingFailed, "movie", "assemble", "invalid session key", err)
	}
	output := sessiondir.MoviePath(a.cfg.Paths.VideoDir, date, a.cfg.Movie.VideoType)

	if sess.State.Rank() >= catalog.StateMovieBuilt.Rank() && fileutil.NonEmptyFile(output) {
		a.logger.Debug("movie already built",
			logging.String(logging.FieldSession, sess.Key),
			logging.String("output", output))
		return nil
	}
	if sess.State != catalog.StateMetadataReady {
		return services.Wrap(services.ErrStateViolation, "movie", "assemble",
			fmt.Sprintf("session %s in state %s", sess.Key, sess.State), nil)
	}

	return sessiondir.WithLock(sess.DirPath, func() error {
		return a.assembleLocked(ctx, sess, output)
	})
}

func (a *Assembler) assembleLocked(ctx context.Context, sess *catalog.Session, output string) error {
	aggregator := metadata.NewAggregator(a.cfg.Capture.ShotType, a.logger)
	records, err := aggregator.Load(sess.DirPath)
	if err != nil {
		return services.Wrap(services.ErrEncodingFailed, "movie", "assemble", "load frame metadata", err)
	}

	width, height, err := a.targetResolution(ctx, sess, records)
	if err != nil {
		return err
	}

	if ok, err := a.encoder.HasMuxer(ctx, a.cfg.Movie.VideoType); err != nil {
		return services.Wrap(services.ErrEncodingFailed, "movie", "assemble", "probe muxers", err)
	} else if !ok {
		return services.Wrap(services.ErrEncodingFailed, "movie", "assemble",
			fmt.Sprintf("encoder has no %q muxer", a.cfg.Movie.VideoType), nil)
	}

	if _, err := FillGaps(sess.DirPath, a.cfg.Capture.ShotType, a.logger); err != nil {
		return services.Wrap(services.ErrEncodingFailed, "movie", "assemble", "fill frame gaps", err)
	}

	a.logger.Info("assembling movie",
		logging.String(logging.FieldSession, sess.Key),
		logging.String("output", output),
		logging.Int("frames", len(records)),
		logging.String("resolution", fmt.Sprintf("%dx%d", width, height)))

	req := Request{
		FramePattern: sessiondir.FramePattern(sess.DirPath, a.cfg.Capture.ShotType),
		OutputPath:   output,
		Width:        width,
		Height:       height,
		FrameRate:    a.cfg.Movie.FrameRate,
		LogDir:       sess.DirPath,
	}
	if err := a.encoder.Encode(ctx, req); err != nil {
		removePartialOutput(output)
		return services.Wrap(services.ErrEncodingFailed, "movie", "encode", "", err)
	}
	if !fileutil.NonEmptyFile(output) {
		removePartialOutput(output)
		return services.Wrap(services.ErrEncodingFailed, "movie", "encode", "encoder produced empty output", nil)
	}
	return nil
}

// targetResolution returns the session's output dimensions. A cached
// catalog value wins; otherwise the resolution is computed from the frame
// metadata and persisted so later runs reuse it.
func (a *Assembler) targetResolution(ctx context.Context, sess *catalog.Session, records []metadata.Record) (int, int, error) {
	if sess.HasTargetResolution() {
		return sess.TargetWidth, sess.TargetHeight, nil
	}
	res := metadata.Analyze(records, a.cfg.Movie.ScaleFactor)
	if res.Width <= 0 || res.Height <= 0 {
		return 0, 0, services.Wrap(services.ErrEncodingFailed, "movie", "assemble", "no usable frame dimensions", nil)
	}
	if err := a.store.SetTargetResolution(ctx, sess.ID, res.Width, res.Height); err != nil {
		if errors.Is(err, services.ErrStateViolation) {
			// Another run already pinned the resolution; reload and use it.
			fresh, lookupErr := a.store.GetByID(ctx, sess.ID)
			if lookupErr == nil && fresh.HasTargetResolution() {
				sess.TargetWidth = fresh.TargetWidth
				sess.TargetHeight = fresh.TargetHeight
				return fresh.TargetWidth, fresh.TargetHeight, nil
			}
		}
		return 0, 0, services.Wrap(services.ErrEncodingFailed, "movie", "assemble", "persist target resolution", err)
	}
	sess.TargetWidth = res.Width
	sess.TargetHeight = res.Height
	return res.Width, res.Height, nil
}

func removePartialOutput(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		os.Remove(path)
	}
}
