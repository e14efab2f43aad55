package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeMovie()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ShotDir, err = expandPath(c.Paths.ShotDir); err != nil {
		return fmt.Errorf("paths.shot_dir: %w", err)
	}
	if c.Paths.VideoDir, err = expandPath(c.Paths.VideoDir); err != nil {
		return fmt.Errorf("paths.video_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.ShotType = strings.ToLower(strings.TrimSpace(c.Capture.ShotType))
	if c.Capture.ShotType == "jpg" {
		c.Capture.ShotType = "jpeg"
	}
	c.Capture.Command = strings.TrimSpace(c.Capture.Command)
	if c.Capture.Command == "" {
		c.Capture.Command = defaultCaptureCommand()
	}
	if c.Capture.DefaultWidth <= 0 {
		c.Capture.DefaultWidth = defaultFrameWidth
	}
	if c.Capture.DefaultHeight <= 0 {
		c.Capture.DefaultHeight = defaultFrameHeight
	}
}

func (c *Config) normalizeMovie() {
	c.Movie.FFmpegBinary = strings.TrimSpace(c.Movie.FFmpegBinary)
	if c.Movie.FFmpegBinary == "" {
		c.Movie.FFmpegBinary = defaultFFmpeg
	}
	c.Movie.VideoType = strings.ToLower(strings.TrimSpace(c.Movie.VideoType))
	if c.Movie.VideoType == "" {
		c.Movie.VideoType = defaultVideoType
	}
	if c.Movie.ScaleFactor == 0 {
		c.Movie.ScaleFactor = defaultScaleFactor
	}
	if c.Movie.FrameRate <= 0 {
		c.Movie.FrameRate = defaultFrameRate
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SweepIntervalSeconds <= 0 {
		c.Workflow.SweepIntervalSeconds = defaultSweepIntervalSeconds
	}
	if c.Workflow.ErrorRetryIntervalSeconds <= 0 {
		c.Workflow.ErrorRetryIntervalSeconds = defaultErrorRetrySeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
