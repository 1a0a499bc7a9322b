package recognition

import (
	"fmt"
)

// Config is an immutable value describing one subtitle-generation request.
// Construct with defaults from the application config and settings store,
// then call Validate before use.
type Config struct {
	Method         Method
	Language       Language
	Model          string
	TimeoutSeconds int
	OutputFormat   OutputFormat

	// Advisory toggles; only a subset of providers honor them.
	EnableTimestamps         bool
	EnablePunctuation        bool
	EnableSpeakerDiarization bool

	EnableFallback bool
	FallbackMethod Method

	// Credentials for the size-limited remote API. Empty values fall back to
	// the OPENAI_API_KEY / OPENAI_BASE_URL environment variables.
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// Validate rejects unknown method, language, and format values immediately.
// The model whitelist applies only when the active method is the local
// whisper provider; remote APIs accept arbitrary model names.
func (c Config) Validate() error {
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return fmt.Errorf("recognition config: %w", err)
	}
	if _, err := ParseLanguage(string(c.Language)); err != nil {
		return fmt.Errorf("recognition config: %w", err)
	}
	if _, err := ParseOutputFormat(string(c.OutputFormat)); err != nil {
		return fmt.Errorf("recognition config: %w", err)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("recognition config: timeout must not be negative, got %d", c.TimeoutSeconds)
	}
	if c.Method == MethodWhisperLocal && !validWhisperModel(c.Model) {
		return fmt.Errorf("recognition config: unsupported whisper model %q (expected one of %v)", c.Model, WhisperModels())
	}
	if c.EnableFallback {
		if _, err := ParseMethod(string(c.FallbackMethod)); err != nil {
			return fmt.Errorf("recognition config: fallback: %w", err)
		}
	}
	return nil
}
