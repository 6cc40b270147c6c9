package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTools() error {
	for key, value := range map[string]string{
		"tools.color_edit":    c.Tools.ColorEdit,
		"tools.whisper":       c.Tools.Whisper,
		"tools.chapter_maker": c.Tools.ChapterMaker,
		"tools.uploader":      c.Tools.Uploader,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	threshold, err := strconv.ParseFloat(c.Tools.VolumeThreshold, 64)
	if err != nil {
		return fmt.Errorf("tools.volume_threshold %q is not a number", c.Tools.VolumeThreshold)
	}
	if threshold <= 0 {
		return errors.New("tools.volume_threshold must be positive")
	}
	if c.Tools.Language != "" {
		if _, err := language.Parse(c.Tools.Language); err != nil {
			return fmt.Errorf("tools.language %q is not a valid language tag: %w", c.Tools.Language, err)
		}
	}
	if c.Tools.TimeoutSeconds <= 0 {
		return errors.New("tools.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	return requirePositive(map[string]int{
		"pipeline.poll_interval":        c.Pipeline.PollInterval,
		"pipeline.error_retry_interval": c.Pipeline.ErrorRetryInterval,
		"pipeline.max_concurrent":       c.Pipeline.MaxConcurrent,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func requirePositive(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
