package movie

import (
	"fmt"
	"path/filepath"

	"log/slog"

	"github.com/dgadling/ompd/internal/fileutil"
	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// FillGaps makes the frame sequence in dir contiguous from zero through the
// highest captured frame. A missing frame is replaced with a copy of its
// nearest lower-numbered neighbour; a missing leading run is filled with
// copies of the earliest captured frame. Returns the number of frames
// written.
func FillGaps(dir, shotType string, logger *slog.Logger) (int, error) {
	frames, err := sessiondir.FrameFiles(dir, shotType)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("no frames in %s", dir)
	}

	present := make(map[int]string, len(frames))
	last := 0
	for _, path := range frames {
		n, ok := sessiondir.ParseFrameNumber(filepath.Base(path))
		if !ok {
			continue
		}
		present[n] = path
		if n > last {
			last = n
		}
	}

	neighbour := frames[0]
	filled := 0
	for n := 0; n <= last; n++ {
		if path, ok := present[n]; ok {
			neighbour = path
			continue
		}
		dst := filepath.Join(dir, sessiondir.FrameFileName(n, shotType))
		if err := fileutil.CopyFile(neighbour, dst); err != nil {
			return filled, fmt.Errorf("fill frame %d: %w", n, err)
		}
		filled++
	}
	if filled > 0 && logger != nil {
		logger.Debug("filled frame gaps",
			logging.String(logging.FieldDirectory, dir),
			logging.Int("filled", filled),
			logging.Int("last_frame", last))
	}
	return filled, nil
}
