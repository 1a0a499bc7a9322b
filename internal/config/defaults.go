package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Default returns the built-in configuration values. Paths are expanded
// during normalize, not here, so tests can override them before Load runs.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultStateDir("work"),
			LogDir:     defaultStateDir("logs"),
			SettingsDB: filepath.Join(defaultStateDir(""), "settings.db"),
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Whisper: "whisper",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Recognition: Recognition{
			Method:            "whisper_local",
			Language:          "auto",
			Model:             "base",
			TimeoutSeconds:    0,
			OutputFormat:      "srt",
			EnableTimestamps:  true,
			EnablePunctuation: true,
			EnableFallback:    true,
			FallbackMethod:    "openai_api",
		},
	}
}

func defaultStateDir(sub string) string {
	base := ""
	if xdg, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(xdg) != "" {
		base = filepath.Join(xdg, "scribe")
	} else if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".local", "state", "scribe")
	} else {
		base = filepath.Join(".", "scribe-state")
	}
	if sub == "" {
		return base
	}
	return filepath.Join(base, sub)
}
