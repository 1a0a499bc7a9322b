package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.WorkDir, &c.Paths.LogDir, &c.Paths.SettingsDB} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.Whisper = strings.TrimSpace(c.Tools.Whisper)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Recognition.Method = strings.TrimSpace(c.Recognition.Method)
	c.Recognition.Language = strings.TrimSpace(c.Recognition.Language)
	c.Recognition.Model = strings.TrimSpace(c.Recognition.Model)
	c.Recognition.OutputFormat = strings.ToLower(strings.TrimSpace(c.Recognition.OutputFormat))
	c.Recognition.FallbackMethod = strings.TrimSpace(c.Recognition.FallbackMethod)
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	return nil
}

// Validate checks structural configuration errors. Recognition enum values
// are validated later, when the effective recognition config is assembled
// from file, settings store, and flags.
func (c *Config) Validate() error {
	if c.Paths.WorkDir == "" {
		return fmt.Errorf("config: paths.work_dir is required")
	}
	if c.Paths.LogDir == "" {
		return fmt.Errorf("config: paths.log_dir is required")
	}
	if c.Paths.SettingsDB == "" {
		return fmt.Errorf("config: paths.settings_db is required")
	}
	if c.Tools.FFmpeg == "" {
		return fmt.Errorf("config: tools.ffmpeg is required")
	}
	if c.Recognition.TimeoutSeconds < 0 {
		return fmt.Errorf("config: recognition.timeout_seconds must not be negative")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
