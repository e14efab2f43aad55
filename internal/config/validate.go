package config

import (
	"errors"
	"fmt"
	"strings"
)

var validShotTypes = map[string]struct{}{
	"png":  {},
	"jpeg": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateMovie(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ShotDir == "" {
		return errors.New("paths.shot_dir must be set")
	}
	if c.Paths.VideoDir == "" {
		return errors.New("paths.video_dir must be set")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.IntervalSeconds <= 0 {
		return errors.New("capture.interval_seconds must be greater than zero")
	}
	if c.Capture.MaxSleepSeconds <= 0 {
		return errors.New("capture.max_sleep_seconds must be greater than zero")
	}
	if _, ok := validShotTypes[c.Capture.ShotType]; !ok {
		return fmt.Errorf("capture.shot_type %q is not supported (use png or jpeg)", c.Capture.ShotType)
	}
	if !strings.Contains(c.Capture.Command, "{output}") {
		return errors.New("capture.command must contain the {output} placeholder")
	}
	return nil
}

func (c *Config) validateMovie() error {
	if c.Movie.ScaleFactor <= 0 {
		return errors.New("movie.scale_factor must be positive")
	}
	if c.Movie.VideoType == "" {
		return errors.New("movie.video_type must be set")
	}
	if c.Movie.FrameRate <= 0 {
		return errors.New("movie.frame_rate must be greater than zero")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.KeepDays < 0 {
		return errors.New("workflow.keep_days must not be negative")
	}
	return nil
}
