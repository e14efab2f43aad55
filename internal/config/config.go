package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ShotDir  string `toml:"shot_dir"`
	VideoDir string `toml:"video_dir"`
	LogDir   string `toml:"log_dir"`
}

// Capture contains configuration for the periodic screen-capture loop.
type Capture struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	MaxSleepSeconds int    `toml:"max_sleep_seconds"`
	ShotType        string `toml:"shot_type"`
	// Command is the screenshot command line. {type} and {output} are
	// replaced with the frame format and destination path.
	Command string `toml:"command"`
	// DefaultWidth/DefaultHeight size filler frames when no prior frame or
	// metadata exists to infer dimensions from.
	DefaultWidth  int `toml:"default_width"`
	DefaultHeight int `toml:"default_height"`
}

// Movie contains configuration for session-to-movie assembly.
type Movie struct {
	FFmpegBinary string  `toml:"ffmpeg_binary"`
	VideoType    string  `toml:"video_type"`
	ScaleFactor  float64 `toml:"scale_factor"`
	FrameRate    int     `toml:"frame_rate"`
	// Width/Height are the legacy explicit output dimensions. Retained for
	// compatibility with older config files; the computed target resolution
	// is not reconciled against them.
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Workflow contains configuration for sweep timing and retention.
type Workflow struct {
	SweepIntervalSeconds      int  `toml:"sweep_interval_seconds"`
	ErrorRetryIntervalSeconds int  `toml:"error_retry_interval_seconds"`
	BackfillOnStartup         bool `toml:"backfill_on_startup"`
	// KeepDays removes compressed session directories older than this many
	// days once a non-empty movie exists. Zero disables retention.
	KeepDays int `toml:"keep_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ompd.
//
// Configuration sections by subsystem:
//   - Paths: shot, video, and log directories
//   - Capture: capture cadence, frame format, fallback dimensions
//   - Movie: encoder binary, output container, scale factor, frame rate
//   - Workflow: sweep cadence, retry interval, retention
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Capture  Capture  `toml:"capture"`
	Movie    Movie    `toml:"movie"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ompd/config.toml")
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the shot, video, and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ShotDir, c.Paths.VideoDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}
