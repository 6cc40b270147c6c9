package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vidpipe/internal/config"
)

// ConfigOption tweaks the config TempConfig hands back.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// TempConfig returns a validated config rooted in a fresh temp directory.
// Options run after the defaults are seeded, so they can override anything.
func TempConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	seedTestPaths(&cfgVal, base)

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// seedTestPaths points every configurable location at directories under base
// and shortens the poll interval so workflow tests finish quickly.
func seedTestPaths(cfg *config.Config, base string) {
	cfg.Paths.WorkDir = filepath.Join(base, "sessions")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Credentials.OpenAIAPIKeyFile = filepath.Join(base, "credentials", "openai_api_key.txt")
	cfg.Credentials.ClientSecretsFile = filepath.Join(base, "credentials", "client_secrets.json")
	cfg.Credentials.TokenFile = filepath.Join(base, "credentials", "token.pickle")
	cfg.Pipeline.PollInterval = 1
	cfg.Tools.TimeoutSeconds = 30
}

// WithNtfyTopic sets the notification topic on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithAutoConfirm enables the auto-confirm switch on the test config.
func WithAutoConfirm() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.AutoConfirm = true
	}
}

// WithStubbedBinaries creates do-nothing executables for the named tools and
// prepends their directory to PATH for the test's lifetime. If names is
// empty, the launcher and the pipeline tools are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{
				b.cfg.Tools.Launcher,
				b.cfg.Tools.ColorEdit,
				b.cfg.Tools.Whisper,
				b.cfg.Tools.ChapterMaker,
				b.cfg.Tools.Uploader,
			}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			stub := filepath.Join(binDir, name)
			if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir recovers the temp root a TempConfig-built config lives under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
