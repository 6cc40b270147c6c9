package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var execCommand = exec.CommandContext

// Client defines transcription behaviour.
type Client interface {
	Transcribe(ctx context.Context, inputPath, destPath, language string) error
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

// WithBinary swaps in a different whisper binary; blank keeps the default.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the whisper command-line tool.
type CLI struct {
	launcher string
	binary   string
}

// NewCLI returns a client that launches whisper through uvx unless
// options say otherwise.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{launcher: "uvx", binary: "whisper"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Transcribe produces an SRT transcript of inputPath at destPath. The tool
// writes <input stem>.srt into its working directory, so the command runs in
// destPath's directory and the result is renamed when the names differ.
func (c *CLI) Transcribe(ctx context.Context, inputPath, destPath, language string) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if destPath == "" {
		return errors.New("destination path required")
	}

	workDir := filepath.Dir(destPath)
	args := []string{"--output_format", "srt", "--task", "transcribe"}
	if lang := strings.TrimSpace(language); lang != "" {
		args = append(args, "--language", lang)
	}
	args = append(args, inputPath)

	name, argv := c.command(args)
	cmd := execCommand(ctx, name, argv...) //nolint:gosec
	cmd.Dir = workDir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.binary, err, strings.TrimSpace(string(output)))
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	produced := filepath.Join(workDir, stem+".srt")
	if produced == destPath {
		return nil
	}
	if err := os.Rename(produced, destPath); err != nil {
		return fmt.Errorf("move transcript into place: %w", err)
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
