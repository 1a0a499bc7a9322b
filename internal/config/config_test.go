package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved == "" {
		t.Fatal("resolved path missing")
	}
	if cfg.Recognition.Method != "whisper_local" || cfg.Recognition.OutputFormat != "srt" {
		t.Fatalf("defaults not applied: %+v", cfg.Recognition)
	}
	if !cfg.Recognition.EnableFallback || cfg.Recognition.FallbackMethod != "openai_api" {
		t.Fatalf("fallback defaults not applied: %+v", cfg.Recognition)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
work_dir = "`+filepath.Join(base, "work")+`"
log_dir = "`+filepath.Join(base, "logs")+`"
settings_db = "`+filepath.Join(base, "settings.db")+`"

[recognition]
method = "openai_api"
language = "ja"
output_format = "VTT"
timeout_seconds = 120

[logging]
level = "DEBUG"
format = "JSON"

[openai]
api_key = " sk-test "
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("file should exist")
	}
	if cfg.Recognition.Method != "openai_api" || cfg.Recognition.Language != "ja" {
		t.Fatalf("recognition overrides lost: %+v", cfg.Recognition)
	}
	if cfg.Recognition.OutputFormat != "vtt" {
		t.Fatalf("output format not lowercased: %q", cfg.Recognition.OutputFormat)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("api key not trimmed: %q", cfg.OpenAI.APIKey)
	}
	if cfg.Paths.WorkDir != filepath.Join(base, "work") {
		t.Fatalf("work dir mangled: %q", cfg.Paths.WorkDir)
	}
}

func TestLoadRejectsBadLoggingFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	path := writeConfig(t, `
[recognition]
timeout_seconds = -1
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "not toml = [")
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	expanded, err := ExpandPath("~/scribe/config.toml")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if !strings.HasPrefix(expanded, home) {
		t.Fatalf("tilde not expanded: %q", expanded)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", dir, err)
		}
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config must load cleanly: exists=%v err=%v", exists, err)
	}
}
