package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var commandContext = exec.CommandContext

// CommandSource captures frames by running an external screenshot command.
// The command line carries {type} and {output} placeholders which are
// substituted at capture time.
type CommandSource struct {
	command  string
	shotType string
}

// NewCommandSource constructs a Source backed by the given command line.
func NewCommandSource(command, shotType string) (*CommandSource, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, errors.New("capture command required")
	}
	if !strings.Contains(command, "{output}") {
		return nil, fmt.Errorf("capture command %q lacks the {output} placeholder", command)
	}
	return &CommandSource{command: command, shotType: shotType}, nil
}

// Capture runs the screenshot command into a scratch file and returns its
// bytes. A non-zero exit reports ErrUnavailable since screenshot tools fail
// that way when the display is locked or asleep.
func (s *CommandSource) Capture(ctx context.Context) ([]byte, error) {
	output := filepath.Join(os.TempDir(), fmt.Sprintf("ompd-%s.%s", uuid.NewString(), s.shotType))
	defer os.Remove(output)

	fields := strings.Fields(s.command)
	args := make([]string, 0, len(fields)-1)
	for _, field := range fields[1:] {
		field = strings.ReplaceAll(field, "{type}", s.shotType)
		field = strings.ReplaceAll(field, "{output}", output)
		args = append(args, field)
	}

	cmd := commandContext(ctx, fields[0], args...) //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s exited %d: %s",
				ErrUnavailable, fields[0], exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return nil, fmt.Errorf("run capture command: %w", err)
	}

	frame, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("%w: no capture output: %v", ErrUnavailable, err)
	}
	return frame, nil
}

var _ Source = (*CommandSource)(nil)
