package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFrameLoss marks a single frame that failed to decode. Never fatal
	// to the session; the gap is filled before assembly.
	ErrFrameLoss = errors.New("frame loss")

	// ErrEncodingFailed marks an external encoder failure. Fatal to the
	// affected session's movie-build step only.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrStateViolation marks an attempt to advance a session's lifecycle
	// out of order. A programming-contract error; the offending operation
	// aborts without mutating on-disk state.
	ErrStateViolation = errors.New("lifecycle state violation")

	// ErrArchiveCorrupt marks a decompression failure. Processing of the
	// affected directory stops in its last confirmed state.
	ErrArchiveCorrupt = errors.New("archive corrupt")

	// ErrConfiguration marks unusable configuration or environment.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided sentinel for later classification.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = errors.New("failure")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
