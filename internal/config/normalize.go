package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizePipeline()
	if err := c.normalizeCredentials(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Launcher = strings.TrimSpace(c.Tools.Launcher)
	if c.Tools.Launcher == "" {
		c.Tools.Launcher = defaultLauncher
	}
	c.Tools.ColorEdit = strings.TrimSpace(c.Tools.ColorEdit)
	if c.Tools.ColorEdit == "" {
		c.Tools.ColorEdit = defaultColorEditTool
	}
	c.Tools.Whisper = strings.TrimSpace(c.Tools.Whisper)
	if c.Tools.Whisper == "" {
		c.Tools.Whisper = defaultWhisperTool
	}
	c.Tools.ChapterMaker = strings.TrimSpace(c.Tools.ChapterMaker)
	if c.Tools.ChapterMaker == "" {
		c.Tools.ChapterMaker = defaultChapterMakerTool
	}
	c.Tools.Uploader = strings.TrimSpace(c.Tools.Uploader)
	if c.Tools.Uploader == "" {
		c.Tools.Uploader = defaultUploaderTool
	}
	c.Tools.VolumeThreshold = strings.TrimSpace(c.Tools.VolumeThreshold)
	if c.Tools.VolumeThreshold == "" {
		c.Tools.VolumeThreshold = defaultVolumeThreshold
	}
	c.Tools.Language = strings.ToLower(strings.TrimSpace(c.Tools.Language))
	if c.Tools.TimeoutSeconds <= 0 {
		c.Tools.TimeoutSeconds = defaultToolTimeoutSeconds
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.PollInterval <= 0 {
		c.Pipeline.PollInterval = defaultPollInterval
	}
	if c.Pipeline.ErrorRetryInterval <= 0 {
		c.Pipeline.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		c.Pipeline.MaxConcurrent = defaultMaxConcurrent
	}
}

func (c *Config) normalizeCredentials() error {
	var err error
	c.Credentials.OpenAIAPIKeyFile = strings.TrimSpace(c.Credentials.OpenAIAPIKeyFile)
	if c.Credentials.OpenAIAPIKeyFile != "" {
		if c.Credentials.OpenAIAPIKeyFile, err = expandPath(c.Credentials.OpenAIAPIKeyFile); err != nil {
			return fmt.Errorf("credentials.openai_api_key_file: %w", err)
		}
	}
	c.Credentials.ClientSecretsFile = strings.TrimSpace(c.Credentials.ClientSecretsFile)
	if c.Credentials.ClientSecretsFile != "" {
		if c.Credentials.ClientSecretsFile, err = expandPath(c.Credentials.ClientSecretsFile); err != nil {
			return fmt.Errorf("credentials.client_secrets_file: %w", err)
		}
	}
	c.Credentials.TokenFile = strings.TrimSpace(c.Credentials.TokenFile)
	if c.Credentials.TokenFile != "" {
		if c.Credentials.TokenFile, err = expandPath(c.Credentials.TokenFile); err != nil {
			return fmt.Errorf("credentials.token_file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
