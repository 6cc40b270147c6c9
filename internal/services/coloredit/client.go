package coloredit

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var execCommand = exec.CommandContext

// Client defines color correction behaviour.
type Client interface {
	Edit(ctx context.Context, inputPath, outputPath, volumeThreshold string) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithLauncher overrides the tool launcher. An empty launcher runs the
// binary directly.
func WithLauncher(launcher string) Option {
	return func(c *CLI) {
		c.launcher = launcher
	}
}

// WithBinary names the color edit binary to run; blank keeps the default.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the color_edit command-line tool.
type CLI struct {
	launcher string
	binary   string
}

// NewCLI builds a client with the stock launcher and binary, then applies
// options.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{launcher: "uvx", binary: "color_edit"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Edit runs color correction, reading inputPath and writing outputPath.
// The volume threshold tunes silence detection for cut points; an empty
// threshold lets the tool use its own default.
func (c *CLI) Edit(ctx context.Context, inputPath, outputPath, volumeThreshold string) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{"--input", inputPath, "--output", outputPath}
	if threshold := strings.TrimSpace(volumeThreshold); threshold != "" {
		args = append(args, "--volume_threshold", threshold)
	}

	name, argv := c.command(args)
	cmd := execCommand(ctx, name, argv...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (c *CLI) command(args []string) (string, []string) {
	if c.launcher == "" {
		return c.binary, args
	}
	return c.launcher, append([]string{c.binary}, args...)
}

var _ Client = (*CLI)(nil)
