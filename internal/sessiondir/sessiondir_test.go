package sessiondir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestForDateParseDateRoundTrip(t *testing.T) {
	root := "/data/shots"
	date := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.Local)

	dir := ForDate(root, date)
	want := filepath.Join(root, "2024", "03", "07")
	if dir.Path != want {
		t.Fatalf("path = %q, want %q", dir.Path, want)
	}

	parsed, err := ParseDate(dir.Path)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !parsed.Equal(dir.Date) {
		t.Fatalf("parsed %v, want %v", parsed, dir.Date)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, path := range []string{
		"/data/shots/not/a/date",
		"/data/shots/2024/13/40",
		"shots",
	} {
		if _, err := ParseDate(path); err == nil {
			t.Fatalf("ParseDate(%q) should fail", path)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	date := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.Local)
	key := Key(date)
	if key != "2024-12-31" {
		t.Fatalf("key = %q", key)
	}
	parsed, err := ParseKey(key)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if !parsed.Equal(date) {
		t.Fatalf("parsed %v, want %v", parsed, date)
	}
}

func TestFrameNaming(t *testing.T) {
	if got := FrameFileName(7, "png"); got != "00007.png" {
		t.Fatalf("FrameFileName = %q", got)
	}
	n, ok := ParseFrameNumber("00123.png")
	if !ok || n != 123 {
		t.Fatalf("ParseFrameNumber = %d, %v", n, ok)
	}
	if _, ok := ParseFrameNumber("notes.txt"); ok {
		t.Fatal("non-numeric stem should not parse")
	}
}

func TestMovieFileName(t *testing.T) {
	date := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.Local)
	if got := MovieFileName(date, "mp4"); got != "ompd-2024-01-05.mp4" {
		t.Fatalf("MovieFileName = %q", got)
	}
}

func TestFrameFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"00002.png", "00000.png", "00001.png", "frame_metadata.csv", "junk.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	frames, err := FrameFiles(dir, "png")
	if err != nil {
		t.Fatalf("FrameFiles: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3: %v", len(frames), frames)
	}
	for i, path := range frames {
		if filepath.Base(path) != FrameFileName(i, "png") {
			t.Fatalf("frame %d = %q", i, path)
		}
	}
}

func TestDiscoverFindsDateDirs(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"2024/01/15", "2024/01/16", "2023/12/31"} {
		if err := os.MkdirAll(filepath.Join(root, rel), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
	}
	// Noise that must be ignored.
	if err := os.MkdirAll(filepath.Join(root, "tmp", "01", "01"), 0o755); err != nil {
		t.Fatalf("mkdir noise: %v", err)
	}

	dirs, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(dirs) != 3 {
		t.Fatalf("got %d dirs, want 3: %v", len(dirs), dirs)
	}
	for i := 1; i < len(dirs); i++ {
		if dirs[i].Date.Before(dirs[i-1].Date) {
			t.Fatal("discovered dirs not sorted ascending")
		}
	}
	if dirs[0].Key() != "2023-12-31" {
		t.Fatalf("first key = %q", dirs[0].Key())
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	dirs, err := Discover(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Discover on missing root: %v", err)
	}
	if dirs != nil {
		t.Fatalf("expected nil, got %v", dirs)
	}
}

func TestWithLockExcludesSecondWriter(t *testing.T) {
	dir := t.TempDir()

	entered := make(chan struct{})
	release := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- WithLock(dir, func() error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	if err := WithLock(dir, func() error { return nil }); err == nil {
		t.Fatal("second writer should be refused while lock held")
	}
	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first writer: %v", err)
	}

	// Lock released: a new writer succeeds.
	if err := WithLock(dir, func() error { return nil }); err != nil {
		t.Fatalf("writer after release: %v", err)
	}
}

func TestWithLockPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	if err := WithLock(t.TempDir(), func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
}
