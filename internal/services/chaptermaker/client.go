package chaptermaker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var execCommand = exec.CommandContext

// Client defines chapter generation behaviour.
type Client interface {
	Generate(ctx context.Context, transcriptPath, outputPath string) error
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

// WithBinary points the client at a different chapter tool; blank keeps
// the default.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithAPIKey provides the OpenAI API key the tool needs for title and
// chapter generation. It is passed through the environment, never argv.
func WithAPIKey(key string) Option {
	return func(c *CLI) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// CLI wraps the yt_chapter_maker command-line tool.
type CLI struct {
	launcher string
	binary   string
	apiKey   string
}

// NewCLI assembles a chapter-maker client, applying any options over the
// defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{launcher: "uvx", binary: "yt_chapter_maker"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Generate reads the SRT transcript and writes the chapter document with
// chapter markers and suggested titles to outputPath.
func (c *CLI) Generate(ctx context.Context, transcriptPath, outputPath string) error {
	if transcriptPath == "" {
		return errors.New("transcript path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{"--input", transcriptPath, "--output", outputPath}
	name, argv := c.command(args)
	cmd := execCommand(ctx, name, argv...) //nolint:gosec
	if c.apiKey != "" {
		cmd.Env = append(os.Environ(), "OPENAI_API_KEY="+c.apiKey)
	}
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
