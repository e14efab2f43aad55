package config

import "runtime"

const (
	defaultShotDir         = "~/.local/share/ompd/shots"
	defaultVideoDir        = "~/.local/share/ompd/videos"
	defaultLogDir          = "~/.local/share/ompd/logs"
	defaultIntervalSeconds = 20
	defaultMaxSleepSeconds = 180
	defaultShotType        = "png"
	// Fallback filler-frame dimensions when a session has produced no frames
	// and no metadata yet.
	defaultFrameWidth  = 3420
	defaultFrameHeight = 2224
	defaultFFmpeg      = "ffmpeg"
	defaultVideoType   = "mp4"
	defaultScaleFactor = 1.0
	// ~27 fps turns 9 hours of 20-second captures into roughly one minute.
	defaultFrameRate            = ((9 * 60 * 60) / defaultIntervalSeconds) / 60
	defaultSweepIntervalSeconds = 300
	defaultErrorRetrySeconds    = 30
	defaultLogFormat            = "auto"
	defaultLogLevel             = "info"
)

func defaultCaptureCommand() string {
	if runtime.GOOS == "darwin" {
		return "screencapture -x -m -t {type} {output}"
	}
	return "scrot -o {output}"
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ShotDir:  defaultShotDir,
			VideoDir: defaultVideoDir,
			LogDir:   defaultLogDir,
		},
		Capture: Capture{
			IntervalSeconds: defaultIntervalSeconds,
			MaxSleepSeconds: defaultMaxSleepSeconds,
			ShotType:        defaultShotType,
			Command:         defaultCaptureCommand(),
			DefaultWidth:    defaultFrameWidth,
			DefaultHeight:   defaultFrameHeight,
		},
		Movie: Movie{
			FFmpegBinary: defaultFFmpeg,
			VideoType:    defaultVideoType,
			ScaleFactor:  defaultScaleFactor,
			FrameRate:    defaultFrameRate,
		},
		Workflow: Workflow{
			SweepIntervalSeconds:      defaultSweepIntervalSeconds,
			ErrorRetryIntervalSeconds: defaultErrorRetrySeconds,
			BackfillOnStartup:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
