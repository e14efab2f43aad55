package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgadling/ompd/internal/config"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/metadata"
	"github.com/dgadling/ompd/internal/services"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// Store writes frames and metadata records into one open session directory.
type Store struct {
	cfg    *config.Config
	logger *slog.Logger
	dir    string
	next   int
}

// NewStore prepares a frame store for a session directory, creating the
// directory if needed and resuming numbering after any frames already on
// disk.
func NewStore(cfg *config.Config, logger *slog.Logger, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}

	s := &Store{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "capture"),
		dir:    dir,
	}
	if err := s.discoverNextFrame(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the session directory this store writes into.
func (s *Store) Dir() string { return s.dir }

// NextFrame returns the sequence number the next stored frame will get.
func (s *Store) NextFrame() int { return s.next }

// Store decodes just enough of frameBytes to learn its dimensions, writes
// the frame file, and appends a metadata record. A frame that fails to
// decode, or whose metadata record cannot be written, is recorded as lost:
// the slot is consumed so numbering stays aligned with wall-clock time, and
// the assembler later fills the gap. The returned ErrFrameLoss is
// informational, never fatal to the session.
func (s *Store) Store(frameBytes []byte) (int, error) {
	frame := s.next

	img, _, err := image.DecodeConfig(bytes.NewReader(frameBytes))
	if err != nil {
		s.next++
		s.logger.Warn("frame failed to decode, recording loss",
			logging.Int("frame", frame),
			logging.String(logging.FieldDirectory, s.dir),
			logging.Error(err),
		)
		return frame, services.Wrap(services.ErrFrameLoss, "capture", "store",
			fmt.Sprintf("frame %d dropped", frame), err)
	}

	path := filepath.Join(s.dir, sessiondir.FrameFileName(frame, s.cfg.Capture.ShotType))
	if _, err := os.Stat(path); err == nil {
		return frame, fmt.Errorf("refusing to overwrite existing frame %s", path)
	}
	if err := os.WriteFile(path, frameBytes, 0o644); err != nil {
		return frame, fmt.Errorf("write frame %s: %w", path, err)
	}

	if err := metadata.Append(s.dir, metadata.Record{Frame: frame, Width: img.Width, Height: img.Height}); err != nil {
		// Remove the orphan frame file and consume the slot, otherwise the
		// overwrite guard above rejects every later capture of this session.
		// The slot becomes an ordinary gap for the assembler to fill.
		if removeErr := os.Remove(path); removeErr != nil {
			s.logger.Warn("failed to remove orphan frame after append failure",
				logging.String("frame_path", path),
				logging.Error(removeErr),
			)
		}
		s.next++
		s.logger.Warn("metadata append failed, recording loss",
			logging.Int("frame", frame),
			logging.String(logging.FieldDirectory, s.dir),
			logging.Error(err),
		)
		return frame, services.Wrap(services.ErrFrameLoss, "capture", "store",
			fmt.Sprintf("frame %d dropped", frame), err)
	}

	s.next++
	return frame, nil
}

// HandleBlackout synthesizes filler frames covering an elapsed blackout
// period, one per capture interval, at the session's current dimensions.
// Sequence contiguity is preserved: downstream assembly assumes one frame
// per expected slot, and dropping blackout periods would desynchronize
// frame numbering from wall-clock time.
func (s *Store) HandleBlackout(elapsed time.Duration) (int, error) {
	interval := time.Duration(s.cfg.Capture.IntervalSeconds) * time.Second
	missed := int(elapsed / interval)
	if missed < 1 {
		missed = 1
	}

	width, height := s.currentDimensions()
	s.logger.Info("filling blackout",
		logging.Duration("elapsed", elapsed),
		logging.Int("filler_frames", missed),
		logging.Int("width", width),
		logging.Int("height", height),
	)

	filler, err := encodeFiller(s.cfg.Capture.ShotType, width, height)
	if err != nil {
		return 0, fmt.Errorf("encode filler frame: %w", err)
	}

	written := 0
	for i := 0; i < missed; i++ {
		if _, err := s.Store(filler); err != nil {
			// A lost slot is already recorded; keep filling the rest.
			if errors.Is(err, services.ErrFrameLoss) {
				continue
			}
			return written, fmt.Errorf("store filler frame: %w", err)
		}
		written++
	}
	return written, nil
}

// currentDimensions resolves the dimensions used for filler frames: the
// last metadata record, then the newest frame file on disk, then the
// configured default.
func (s *Store) currentDimensions() (int, int) {
	if records, ok, err := loadRecords(s.dir); err == nil && ok {
		if last, exists := metadata.Last(records); exists {
			return last.Width, last.Height
		}
	}

	if frames, err := sessiondir.FrameFiles(s.dir, s.cfg.Capture.ShotType); err == nil && len(frames) > 0 {
		if width, height, err := metadata.ProbeDimensions(frames[len(frames)-1]); err == nil {
			return width, height
		}
	}

	return s.cfg.Capture.DefaultWidth, s.cfg.Capture.DefaultHeight
}

func (s *Store) discoverNextFrame() error {
	frames, err := sessiondir.FrameFiles(s.dir, s.cfg.Capture.ShotType)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		s.next = 0
		return nil
	}
	last, ok := sessiondir.ParseFrameNumber(filepath.Base(frames[len(frames)-1]))
	if !ok {
		s.next = len(frames)
		return nil
	}
	s.next = last + 1
	return nil
}

func loadRecords(dir string) ([]metadata.Record, bool, error) {
	f, err := os.Open(metadata.ArtifactPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	records, err := metadata.Parse(f)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}
