package movie

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

const (
	stdoutLogName = "ffmpeg-stdout.log"
	stderrLogName = "ffmpeg-stderr.log"
)

// Request describes a single frames-to-video encode.
type Request struct {
	// FramePattern is a printf-style glob such as dir/%05d.png.
	FramePattern string
	// OutputPath is the destination video file.
	OutputPath string
	// Width and Height are the normalized output dimensions. Inputs that
	// differ are scaled to fit and padded with black.
	Width  int
	Height int
	// FrameRate is the playback rate in frames per second.
	FrameRate int
	// LogDir receives the encoder's stdout and stderr transcripts. Empty
	// discards them.
	LogDir string
}

// Encoder defines the video assembly behaviour.
type Encoder interface {
	Encode(ctx context.Context, req Request) error
	HasMuxer(ctx context.Context, name string) (bool, error)
}

// Option configures the CLI encoder.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line encoder.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI encoder using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Encode runs ffmpeg over the numbered frame sequence and writes the
// normalized video to req.OutputPath.
func (c *CLI) Encode(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.FramePattern) == "" {
		return errors.New("frame pattern required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return fmt.Errorf("invalid output dimensions %dx%d", req.Width, req.Height)
	}
	rate := req.FrameRate
	if rate <= 0 {
		rate = 1
	}

	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		req.Width, req.Height, req.Width, req.Height,
	)
	args := []string{
		"-y",
		"-framerate", fmt.Sprint(rate),
		"-i", req.FramePattern,
		"-vf", filter,
		"-pix_fmt", "yuv420p",
		req.OutputPath,
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	closeFns, err := attachLogs(cmd, req.LogDir)
	if err != nil {
		return err
	}
	defer closeFns()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	return nil
}

// HasMuxer reports whether ffmpeg can mux the named container format.
func (c *CLI) HasMuxer(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("muxer name required")
	}
	cmd := commandContext(ctx, c.binary, "-hide_banner", "-muxers")
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("list ffmpeg muxers: %w", err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Lines look like " E  mp4    MP4 (MPEG-4 Part 14)".
		if len(fields) >= 2 && fields[0] == "E" {
			for _, muxer := range strings.Split(fields[1], ",") {
				if muxer == name {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func attachLogs(cmd *exec.Cmd, dir string) (func(), error) {
	if strings.TrimSpace(dir) == "" {
		return func() {}, nil
	}
	stdout, err := os.Create(filepath.Join(dir, stdoutLogName))
	if err != nil {
		return nil, fmt.Errorf("create encoder stdout log: %w", err)
	}
	stderr, err := os.Create(filepath.Join(dir, stderrLogName))
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("create encoder stderr log: %w", err)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return func() {
		stdout.Close()
		stderr.Close()
	}, nil
}

var _ Encoder = (*CLI)(nil)
