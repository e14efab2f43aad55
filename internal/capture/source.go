package capture

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no valid capture can be obtained right now,
// e.g. the display is off. The caller treats this as a blackout rather than
// a failure.
var ErrUnavailable = errors.New("display unavailable")

// Source is the OS-level screen-capture primitive. Capture returns one
// encoded frame, ErrUnavailable during a blackout, or any other error for a
// transient capture problem worth skipping.
type Source interface {
	Capture(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Capture(ctx context.Context) ([]byte, error) {
	return f(ctx)
}
