package metadata

import (
	"compress/gzip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgadling/ompd/internal/logging"
	"github.com/dgadling/ompd/internal/sessiondir"
)

// Aggregator materializes and restores per-session frame tables.
type Aggregator struct {
	shotType string
	logger   *slog.Logger
}

// NewAggregator constructs an aggregator for frames of the given format.
func NewAggregator(shotType string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		shotType: shotType,
		logger:   logging.NewComponentLogger(logger, "metadata"),
	}
}

// Generate scans every frame file in dir, reads only dimension headers, and
// writes the ordered metadata artifact. Used both for first-time closure and
// for legacy backfill. Frames whose header cannot be read are skipped and
// logged; the gap is repaired during movie assembly.
func (a *Aggregator) Generate(dir string) ([]Record, error) {
	frames, err := sessiondir.FrameFiles(dir, a.shotType)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames found in %s with extension .%s", dir, a.shotType)
	}

	a.logger.Info("generating metadata",
		logging.String(logging.FieldDirectory, dir),
		logging.Int("frames", len(frames)),
	)

	records := make([]Record, 0, len(frames))
	for _, path := range frames {
		frame, ok := sessiondir.ParseFrameNumber(filepath.Base(path))
		if !ok {
			continue
		}
		width, height, err := ProbeDimensions(path)
		if err != nil {
			a.logger.Warn("skipping unreadable frame",
				logging.String("frame", path),
				logging.Error(err),
			)
			continue
		}
		records = append(records, Record{Frame: frame, Width: width, Height: height})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no readable frames in %s", dir)
	}

	if err := Write(dir, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Load resolves the session's frame table: the compressed artifact first,
// then the plain artifact, then a fresh Generate. Repeated calls with no
// underlying filesystem change return identical records, which keeps
// re-entrant backfill safe.
func (a *Aggregator) Load(dir string) ([]Record, error) {
	if records, ok, err := readCompressed(dir); err != nil {
		return nil, err
	} else if ok {
		return records, nil
	}

	if records, ok, err := readPlain(dir); err != nil {
		return nil, err
	} else if ok {
		return records, nil
	}

	return a.Generate(dir)
}

func readPlain(dir string) ([]Record, bool, error) {
	f, err := os.Open(ArtifactPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open metadata artifact: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func readCompressed(dir string) ([]Record, bool, error) {
	f, err := os.Open(CompressedArtifactPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("open compressed metadata artifact: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, false, fmt.Errorf("read compressed metadata artifact: %w", err)
	}
	defer gz.Close()

	records, err := Parse(gz)
	if err != nil {
		return nil, false, err
	}
	return records, true, nil
}
