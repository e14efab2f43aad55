package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/dgadling/ompd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ShotDir = filepath.Join(base, "shots")
	cfg.Paths.VideoDir = filepath.Join(base, "videos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Capture.ShotType = "png"
	cfg.Capture.IntervalSeconds = 20
	cfg.Capture.DefaultWidth = 1024
	cfg.Capture.DefaultHeight = 768

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithScaleFactor overrides the movie scale factor on the test config.
func WithScaleFactor(factor float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Movie.ScaleFactor = factor
	}
}

// WithShotType overrides the frame format on the test config.
func WithShotType(shotType string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Capture.ShotType = shotType
	}
}

// WithKeepDays enables retention on the test config.
func WithKeepDays(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.KeepDays = days
	}
}
