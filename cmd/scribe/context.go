package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/providers/aliyun"
	"scribe/internal/providers/azure"
	"scribe/internal/providers/gspeech"
	"scribe/internal/providers/openai"
	"scribe/internal/providers/whispercli"
	"scribe/internal/recognition"
	"scribe/internal/settings"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Paths:  []string{"stderr", filepath.Join(cfg.Paths.LogDir, "scribe.log")},
		})
	})
	return c.logger, c.loggerErr
}

// buildRecognizer assembles the provider registry and dispatcher from the
// loaded configuration. Every known provider is registered; availability is
// probed once inside NewRecognizer.
func (c *commandContext) buildRecognizer() (*recognition.Recognizer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	transcoder := media.NewTranscoder(cfg.Tools.FFmpeg, cfg.Tools.FFprobe, logger)
	segmenter := media.NewSegmenter(transcoder, logger)

	registry := buildRegistry(cfg, transcoder, segmenter, logger)
	return recognition.NewRecognizer(registry, transcoder, logger), nil
}

func buildRegistry(cfg *config.Config, transcoder *media.Transcoder, segmenter *media.Segmenter, logger *slog.Logger) *recognition.Registry {
	registry := recognition.NewRegistry()
	registry.Register(whispercli.New(cfg.Tools.Whisper, cfg.Paths.WorkDir, logger))
	registry.Register(openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.Paths.WorkDir, transcoder, segmenter, logger))
	registry.Register(azure.New(cfg.Paths.WorkDir, transcoder, logger))
	registry.Register(gspeech.New(cfg.Paths.WorkDir, transcoder, logger))
	registry.Register(aliyun.New(cfg.Paths.WorkDir, transcoder, logger))
	return registry
}

func (c *commandContext) openSettings() (*settings.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(cfg.Paths.SettingsDB)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	return store, nil
}

// recognitionDefaults converts the file-level recognition section into a
// request config. Settings-store values and flags layer on top of this.
func recognitionDefaults(cfg *config.Config) recognition.Config {
	return recognition.Config{
		Method:                   recognition.Method(cfg.Recognition.Method),
		Language:                 recognition.Language(cfg.Recognition.Language),
		Model:                    cfg.Recognition.Model,
		TimeoutSeconds:           cfg.Recognition.TimeoutSeconds,
		OutputFormat:             recognition.OutputFormat(cfg.Recognition.OutputFormat),
		EnableTimestamps:         cfg.Recognition.EnableTimestamps,
		EnablePunctuation:        cfg.Recognition.EnablePunctuation,
		EnableSpeakerDiarization: cfg.Recognition.EnableSpeakerDiarization,
		EnableFallback:           cfg.Recognition.EnableFallback,
		FallbackMethod:           recognition.Method(cfg.Recognition.FallbackMethod),
		OpenAIAPIKey:             cfg.OpenAI.APIKey,
		OpenAIBaseURL:            cfg.OpenAI.BaseURL,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
