// Package render provides Renderer implementations for the scheduler.
//
// The production renderer shells out to an external program once per
// frame (typically a headless Blender invocation). The call blocks for
// that one frame, which is exactly the granularity the scheduler's
// one-step-per-tick contract expects.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spritemill/spritemill/internal/scheduler"
)

// FramePlaceholder is replaced with the frame number in command
// argument templates.
const FramePlaceholder = "{frame}"

// Command renders frames by running an external program, substituting
// the frame number into its argument templates.
type Command struct {
	program string
	args    []string
	dir     string
	logger  *slog.Logger
}

var _ scheduler.Renderer = (*Command)(nil)

// NewCommand creates a Command renderer.
//
// args are templates: every occurrence of {frame} is replaced with the
// frame number on each render. If no argument carries the placeholder,
// the frame number is appended as a final argument.
func NewCommand(program string, args []string, dir string, logger *slog.Logger) *Command {
	if logger == nil {
		logger = slog.Default()
	}
	return &Command{
		program: program,
		args:    args,
		dir:     dir,
		logger:  logger.With("component", "render-command"),
	}
}

// RenderFrame runs the configured program for one frame and blocks
// until it exits.
func (c *Command) RenderFrame(ctx context.Context, frame int) error {
	args := buildArgs(c.args, frame)

	cmd := exec.CommandContext(ctx, c.program, args...)
	cmd.Dir = c.dir

	c.logger.Debug("rendering frame", "frame", frame, "program", c.program)

	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Debug("render command output", "frame", frame, "output", string(out))
		return scheduler.NewRenderError("", frame, fmt.Errorf("run %s: %w", c.program, err))
	}
	return nil
}

// buildArgs substitutes the frame number into the argument templates.
// If no template mentions the placeholder, the frame number is appended.
func buildArgs(templates []string, frame int) []string {
	n := strconv.Itoa(frame)

	args := make([]string, len(templates))
	substituted := false
	for i, t := range templates {
		if strings.Contains(t, FramePlaceholder) {
			substituted = true
			args[i] = strings.ReplaceAll(t, FramePlaceholder, n)
			continue
		}
		args[i] = t
	}
	if !substituted {
		args = append(args, n)
	}
	return args
}

// Nop is a Renderer that renders nothing. Used for dry runs, where only
// sequencing and metadata are of interest.
type Nop struct{}

// RenderFrame does nothing and always succeeds.
func (Nop) RenderFrame(ctx context.Context, frame int) error {
	return nil
}
