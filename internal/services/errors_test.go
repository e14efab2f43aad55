package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapPreservesSentinel(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := Wrap(ErrEncodingFailed, "movie", "ffmpeg invocation", "encoder exited abnormally", cause)

	if !errors.Is(err, ErrEncodingFailed) {
		t.Fatal("wrapped error should match its sentinel")
	}
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should match the underlying cause")
	}
	for _, fragment := range []string{"movie", "ffmpeg invocation", "encoder exited abnormally"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error message missing %q: %s", fragment, err)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrStateViolation, "catalog", "advance", "cannot compress before movie exists", nil)
	if !errors.Is(err, ErrStateViolation) {
		t.Fatal("wrapped error should match its sentinel")
	}
	if strings.Contains(err.Error(), "<nil>") {
		t.Fatalf("nil cause leaked into message: %s", err)
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrConfiguration, "", "", "", nil)
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected generic detail, got %s", err)
	}
}
