package sessiondir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LockFileName is the advisory lock marker used to serialize critical
// sections (movie build, compress, decompress) within one session directory.
const LockFileName = ".ompd.lock"

// MetadataFileName is the per-session frame table artifact.
const MetadataFileName = "frame_metadata.csv"

// Dir identifies one session directory and its creation date.
type Dir struct {
	Path string
	Date time.Time
}

// Key returns the session key for the directory's creation date.
func (d Dir) Key() string {
	return Key(d.Date)
}

// Key formats a session key from a creation date.
func Key(date time.Time) string {
	return date.Format("2006-01-02")
}

// ParseKey parses a session key back into a date.
func ParseKey(key string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(key), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session key %q: %w", key, err)
	}
	return date, nil
}

// ForDate builds the session directory path for a date: root/YYYY/MM/DD.
func ForDate(root string, date time.Time) Dir {
	return Dir{
		Path: filepath.Join(root,
			fmt.Sprintf("%04d", date.Year()),
			fmt.Sprintf("%02d", int(date.Month())),
			fmt.Sprintf("%02d", date.Day()),
		),
		Date: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local),
	}
}

// ParseDate recovers year/month/day from a session directory path like
// root/2024/01/15. It fails when the trailing components are not numeric or
// do not form a real calendar date.
func ParseDate(path string) (time.Time, error) {
	cleaned := filepath.Clean(path)
	parts := strings.Split(cleaned, string(filepath.Separator))
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("path %q has no date components", path)
	}
	day, errD := strconv.Atoi(parts[len(parts)-1])
	month, errM := strconv.Atoi(parts[len(parts)-2])
	year, errY := strconv.Atoi(parts[len(parts)-3])
	if errD != nil || errM != nil || errY != nil {
		return time.Time{}, fmt.Errorf("path %q has non-numeric date components", path)
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, fmt.Errorf("path %q encodes invalid date %04d-%02d-%02d", path, year, month, day)
	}
	return date, nil
}

// FrameFileName formats the on-disk name for a frame number.
func FrameFileName(frame int, shotType string) string {
	return fmt.Sprintf("%05d.%s", frame, shotType)
}

// FramePattern returns the printf-style input pattern the encoder consumes.
func FramePattern(dir, shotType string) string {
	return filepath.Join(dir, "%05d."+shotType)
}

// ParseFrameNumber extracts the frame number from a frame file name.
func ParseFrameNumber(name string) (int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	n, err := strconv.Atoi(stem)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// MovieFileName formats the output movie name for a session date.
func MovieFileName(date time.Time, videoType string) string {
	return fmt.Sprintf("ompd-%04d-%02d-%02d.%s", date.Year(), int(date.Month()), date.Day(), videoType)
}

// MoviePath returns the full output path for a session date.
func MoviePath(videoDir string, date time.Time, videoType string) string {
	return filepath.Join(videoDir, MovieFileName(date, videoType))
}

// FrameFiles lists frame files in dir with the given shot type, sorted by
// frame number. Files whose stem is not a frame number are skipped, as are
// symlinks (blackout filler links from older versions).
func FrameFiles(dir, shotType string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir %s: %w", dir, err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, "."+shotType) {
			continue
		}
		if _, ok := ParseFrameNumber(name); !ok {
			continue
		}
		frames = append(frames, filepath.Join(dir, name))
	}
	sort.Strings(frames)
	return frames, nil
}

// Discover walks root for directories matching the YYYY/MM/DD layout and
// returns them sorted by date ascending.
func Discover(root string) ([]Dir, error) {
	years, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read shot root %s: %w", root, err)
	}

	var dirs []Dir
	for _, year := range years {
		if !year.IsDir() || !numericName(year.Name(), 4) {
			continue
		}
		months, err := os.ReadDir(filepath.Join(root, year.Name()))
		if err != nil {
			continue
		}
		for _, month := range months {
			if !month.IsDir() || !numericName(month.Name(), 2) {
				continue
			}
			days, err := os.ReadDir(filepath.Join(root, year.Name(), month.Name()))
			if err != nil {
				continue
			}
			for _, day := range days {
				if !day.IsDir() || !numericName(day.Name(), 2) {
					continue
				}
				path := filepath.Join(root, year.Name(), month.Name(), day.Name())
				date, err := ParseDate(path)
				if err != nil {
					continue
				}
				dirs = append(dirs, Dir{Path: path, Date: date})
			}
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Date.Before(dirs[j].Date) })
	return dirs, nil
}

func numericName(name string, width int) bool {
	if len(name) != width {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
