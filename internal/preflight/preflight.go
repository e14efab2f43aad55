package preflight

import (
	"strings"

	"github.com/dgadling/ompd/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Warning marks a failed check that should not block startup.
	Warning bool
	Detail  string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Shot directory", cfg.Paths.ShotDir),
		CheckDirectoryAccess("Video directory", cfg.Paths.VideoDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckBinary("Capture command", captureBinary(cfg.Capture.Command)),
		CheckBinary("Encoder", cfg.Movie.FFmpegBinary),
		CheckDiskSpace("Shot disk space", cfg.Paths.ShotDir),
	}
	return results
}

// Blockers filters results down to hard failures.
func Blockers(results []Result) []Result {
	var blockers []Result
	for _, result := range results {
		if !result.Passed && !result.Warning {
			blockers = append(blockers, result)
		}
	}
	return blockers
}

func captureBinary(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
