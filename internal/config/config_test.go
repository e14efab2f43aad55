package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Movie.ScaleFactor != 1.0 {
		t.Fatalf("scale factor default = %v, want 1.0", cfg.Movie.ScaleFactor)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if cfg.Capture.IntervalSeconds != defaultIntervalSeconds {
		t.Fatalf("interval = %d, want default %d", cfg.Capture.IntervalSeconds, defaultIntervalSeconds)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
shot_dir = "` + filepath.Join(dir, "shots") + `"
video_dir = "` + filepath.Join(dir, "videos") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[capture]
interval_seconds = 5
shot_type = "JPG"

[movie]
scale_factor = 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Capture.IntervalSeconds != 5 {
		t.Fatalf("interval = %d, want 5", cfg.Capture.IntervalSeconds)
	}
	if cfg.Capture.ShotType != "jpeg" {
		t.Fatalf("shot type = %q, want normalized jpeg", cfg.Capture.ShotType)
	}
	if cfg.Movie.ScaleFactor != 0.5 {
		t.Fatalf("scale factor = %v, want 0.5", cfg.Movie.ScaleFactor)
	}
	// Unset sections keep defaults.
	if cfg.Movie.VideoType != defaultVideoType {
		t.Fatalf("video type = %q, want default", cfg.Movie.VideoType)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero scale", func(c *Config) { c.Movie.ScaleFactor = 0 }, "scale_factor"},
		{"negative scale", func(c *Config) { c.Movie.ScaleFactor = -0.5 }, "scale_factor"},
		{"bad shot type", func(c *Config) { c.Capture.ShotType = "tiff" }, "shot_type"},
		{"zero interval", func(c *Config) { c.Capture.IntervalSeconds = 0 }, "interval_seconds"},
		{"negative sleep", func(c *Config) { c.Capture.MaxSleepSeconds = -1 }, "max_sleep_seconds"},
		{"negative keep days", func(c *Config) { c.Workflow.KeepDays = -1 }, "keep_days"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.normalizeCapture()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}

	// The generated sample must itself load and validate.
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/ompd")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "ompd") {
		t.Fatalf("expandPath = %q", got)
	}
}
