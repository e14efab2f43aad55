package sessiondir

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WithLock runs fn while holding the session directory's advisory lock.
// Only one critical-section writer (movie build, compress, decompress) may
// run per directory at a time; unrelated sessions progress independently.
func WithLock(dir string, fn func() error) error {
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock for %s: %w", dir, err)
	}
	if !ok {
		return fmt.Errorf("session %s is locked by another writer", dir)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}
