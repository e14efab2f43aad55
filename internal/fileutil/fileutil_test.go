package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFilePreservesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")

	payload := []byte("capture frame payload")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("destination content mismatch: got %q want %q", got, payload)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestFileSHA256MatchesForIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	for _, path := range []string{a, b} {
		if err := os.WriteFile(path, []byte("same bytes"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	hashA, err := FileSHA256(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := FileSHA256(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if !bytes.Equal(hashA, hashB) {
		t.Fatal("identical files should hash identically")
	}
}

func TestNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatalf("write full: %v", err)
	}

	if NonEmptyFile(empty) {
		t.Fatal("empty file reported non-empty")
	}
	if !NonEmptyFile(full) {
		t.Fatal("non-empty file reported empty")
	}
	if NonEmptyFile(filepath.Join(dir, "missing")) {
		t.Fatal("missing file reported non-empty")
	}
	if NonEmptyFile(dir) {
		t.Fatal("directory reported as non-empty file")
	}
}
