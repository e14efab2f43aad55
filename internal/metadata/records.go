package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dgadling/ompd/internal/sessiondir"
)

// Record is one row of the frame table.
type Record struct {
	Frame  int
	Width  int
	Height int
}

var csvHeader = []string{"frame", "width", "height"}

// ArtifactPath returns the plain metadata artifact location for a session
// directory.
func ArtifactPath(dir string) string {
	return filepath.Join(dir, sessiondir.MetadataFileName)
}

// CompressedArtifactPath returns the archived metadata artifact location.
func CompressedArtifactPath(dir string) string {
	return ArtifactPath(dir) + ".gz"
}

// Append adds one record to the session's metadata artifact, creating it
// with a header row first if needed. Rows are only ever added at the end.
func Append(dir string, rec Record) error {
	path := ArtifactPath(dir)
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open metadata artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needsHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write metadata header: %w", err)
		}
	}
	if err := w.Write(recordFields(rec)); err != nil {
		return fmt.Errorf("write metadata record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush metadata record: %w", err)
	}
	return f.Close()
}

// Write replaces the session's metadata artifact with the given records.
func Write(dir string, records []Record) error {
	path := ArtifactPath(dir)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create metadata artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write metadata header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(recordFields(rec)); err != nil {
			return fmt.Errorf("write metadata record %d: %w", rec.Frame, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush metadata artifact: %w", err)
	}
	return f.Close()
}

// Parse reads records from an open metadata stream. The header row is
// required; malformed rows fail the parse rather than being silently
// dropped, since a corrupt table would desynchronize frame numbering.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read metadata rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("metadata artifact is empty")
	}
	if !isHeaderRow(rows[0]) {
		return nil, fmt.Errorf("metadata artifact has malformed header %v, want %v", rows[0], csvHeader)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != 3 {
			return nil, fmt.Errorf("metadata row %d has %d fields, want 3", i+1, len(row))
		}
		frame, errF := strconv.Atoi(row[0])
		width, errW := strconv.Atoi(row[1])
		height, errH := strconv.Atoi(row[2])
		if errF != nil || errW != nil || errH != nil {
			return nil, fmt.Errorf("metadata row %d is not numeric: %v", i+1, row)
		}
		records = append(records, Record{Frame: frame, Width: width, Height: height})
	}
	return records, nil
}

// Last returns the final record of the table, if any.
func Last(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	return records[len(records)-1], true
}

func isHeaderRow(row []string) bool {
	if len(row) != len(csvHeader) {
		return false
	}
	for i, field := range csvHeader {
		if row[i] != field {
			return false
		}
	}
	return true
}

func recordFields(rec Record) []string {
	return []string{
		strconv.Itoa(rec.Frame),
		strconv.Itoa(rec.Width),
		strconv.Itoa(rec.Height),
	}
}
