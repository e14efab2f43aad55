package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgadling/ompd/internal/testsupport"
)

func TestNewCommandSourceRequiresPlaceholder(t *testing.T) {
	if _, err := NewCommandSource("screencapture -x", "png"); err == nil {
		t.Fatal("expected error for command without {output}")
	}
	if _, err := NewCommandSource("  ", "png"); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestCommandSourceCapture(t *testing.T) {
	frame := testsupport.EncodeFrame(t, "png", 16, 12)
	src := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(src, frame, 0o644); err != nil {
		t.Fatal(err)
	}

	source, err := NewCommandSource("cp "+src+" {output}", "png")
	if err != nil {
		t.Fatal(err)
	}
	got, err := source.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Fatal("captured bytes differ from source frame")
	}
}

func TestCommandSourceUnavailableOnExitError(t *testing.T) {
	source, err := NewCommandSource("false {output}", "png")
	if err != nil {
		t.Fatal(err)
	}
	_, err = source.Capture(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCommandSourceSubstitutesType(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "seen.{type}")
	source, err := NewCommandSource("touch "+marker+" {output}", "png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := source.Capture(context.Background()); err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "seen.png")); err != nil {
		t.Fatal("expected {type} placeholder to be substituted")
	}
}
