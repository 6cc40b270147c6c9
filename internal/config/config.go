package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds the directory roots the pipeline writes into and the bind
// address for the web API.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Tools contains the external command names the pipeline stages invoke and
// the flags shared across invocations.
type Tools struct {
	Launcher        string `toml:"launcher"`
	ColorEdit       string `toml:"color_edit"`
	Whisper         string `toml:"whisper"`
	ChapterMaker    string `toml:"chapter_maker"`
	Uploader        string `toml:"uploader"`
	VolumeThreshold string `toml:"volume_threshold"`
	Language        string `toml:"language"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Pipeline contains workflow timing and default run behavior.
type Pipeline struct {
	PollInterval       int  `toml:"poll_interval"`
	ErrorRetryInterval int  `toml:"error_retry_interval"`
	MaxConcurrent      int  `toml:"max_concurrent"`
	SkipColorEdit      bool `toml:"skip_color_edit"`
	AutoConfirm        bool `toml:"auto_confirm"`
}

// Credentials contains paths to upload credential files. Web sessions may
// override each of these with per-session uploads; these are the fallbacks
// used by CLI runs and by sessions that did not supply their own.
type Credentials struct {
	OpenAIAPIKeyFile  string `toml:"openai_api_key_file"`
	ClientSecretsFile string `toml:"client_secrets_file"`
	TokenFile         string `toml:"token_file"`
}

// Notifications carries the ntfy settings used for push delivery.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging selects the log format and verbosity.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the full runtime configuration tree.
//
// Sections by subsystem:
//   - Paths: session workspace root, log directory, API bind address
//   - Tools: external command names and shared tool flags
//   - Pipeline: polling cadence, concurrency, default run switches
//   - Credentials: fallback credential file locations for uploads
//   - Notifications: ntfy topic and request timeout
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Credentials   Credentials   `toml:"credentials"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath reports where the config file lives by default.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/video_pipeline/config.toml")
}

// Source records which file a Config came from. FromFile is false when the
// path was only a candidate and the defaults were used instead.
type Source struct {
	Path     string
	FromFile bool
}

// Load finds the config file, reads it, and validates the result. Path
// fields come back expanded and absolute. When no file exists the defaults
// are returned unchanged; Source says what was read.
func Load(path string) (*Config, Source, error) {
	src, err := locateConfig(path)
	if err != nil {
		return nil, Source{}, err
	}

	cfg := Default()
	if src.FromFile {
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, Source{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, Source{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, Source{}, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, Source{}, err
	}

	return &cfg, src, nil
}

// locateConfig picks the config file location. An explicit path wins
// even when the file does not exist yet; otherwise the default location is
// tried first and video_pipeline.toml in the working directory second.
func locateConfig(path string) (Source, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return Source{}, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return Source{Path: expanded, FromFile: true}, nil
		case errors.Is(err, fs.ErrNotExist):
			return Source{Path: expanded}, nil
		default:
			return Source{}, fmt.Errorf("stat config file: %w", err)
		}
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return Source{}, err
	}
	projectPath, err := filepath.Abs("video_pipeline.toml")
	if err != nil {
		return Source{}, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return Source{Path: candidate, FromFile: true}, nil
		}
	}
	return Source{Path: defaultPath}, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("look up home directory: %w", err)
		}
		switch {
		case pathValue == "~":
			pathValue = home
		case len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\'):
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("make %q absolute: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath applies the same tilde and absolute-path expansion Load uses,
// for callers that accept paths on the command line.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// WriteSample writes the annotated sample config to path, creating parent
// directories as needed.
func WriteSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("make config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}
