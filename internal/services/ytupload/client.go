package ytupload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var execCommand = exec.CommandContext

// Request carries everything one upload invocation needs. The tool resolves
// client_secrets.json and token.pickle from its working directory, so WorkDir
// must be the session workspace holding the credential files.
type Request struct {
	VideoPath       string
	TranscriptPath  string
	DescriptionPath string
	ThumbnailPath   string
	Title           string
	WorkDir         string
}

// Client defines upload behaviour.
type Client interface {
	Upload(ctx context.Context, req Request) (string, error)
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

// WithBinary selects the uploader binary; blank keeps the default.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the yt_upload command-line tool.
type CLI struct {
	launcher string
	binary   string
}

// NewCLI creates an uploader client with defaults, then applies options.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{launcher: "uvx", binary: "yt_upload"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Upload publishes the video and returns the video ID the tool prints as the
// last line of its standard output. The thumbnail flag is only passed when a
// thumbnail path is present.
func (c *CLI) Upload(ctx context.Context, req Request) (string, error) {
	if req.VideoPath == "" {
		return "", errors.New("video path required")
	}
	if req.TranscriptPath == "" {
		return "", errors.New("transcript path required")
	}
	if req.DescriptionPath == "" {
		return "", errors.New("description path required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", errors.New("title required")
	}
	if req.WorkDir == "" {
		return "", errors.New("working directory required")
	}

	args := []string{
		"--video", req.VideoPath,
		"--transcript", req.TranscriptPath,
		"--description", req.DescriptionPath,
	}
	if req.ThumbnailPath != "" {
		args = append(args, "--thumbnail", req.ThumbnailPath)
	}
	args = append(args, "--title", req.Title)

	name, argv := c.command(args)
	cmd := execCommand(ctx, name, argv...) //nolint:gosec
	cmd.Dir = req.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("%s: %w: %s", c.binary, err, detail)
	}

	videoID := lastNonEmptyLine(stdout.String())
	if videoID == "" {
		return "", fmt.Errorf("%s finished without reporting a video id", c.binary)
	}
	return videoID, nil
}

func (c *CLI) command(args []string) (string, []string) {
	if c.launcher == "" {
		return c.binary, args
	}
	return c.launcher, append([]string{c.binary}, args...)
}

func lastNonEmptyLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

var _ Client = (*CLI)(nil)
