// Package recognition contains the provider-independent core of subtitle
// generation: the recognition config, the error taxonomy, the provider
// registry with its availability snapshot, and the fallback dispatcher.
package recognition

import (
	"fmt"
	"strings"
)

// Method identifies a transcription provider.
type Method string

const (
	MethodWhisperLocal Method = "whisper_local"
	MethodOpenAI       Method = "openai_api"
	MethodAzure        Method = "azure_speech"
	MethodGoogle       Method = "google_speech"
	MethodAliyun       Method = "aliyun_speech"
)

// Methods lists every known provider in preference order.
func Methods() []Method {
	return []Method{MethodWhisperLocal, MethodOpenAI, MethodAzure, MethodGoogle, MethodAliyun}
}

// ParseMethod validates a provider name.
func ParseMethod(value string) (Method, error) {
	method := Method(strings.TrimSpace(value))
	for _, known := range Methods() {
		if method == known {
			return method, nil
		}
	}
	return "", fmt.Errorf("unsupported recognition method %q", value)
}

// Language is an ISO-like language code, or "auto" for detection.
type Language string

// LanguageAuto requests provider-side language detection.
const LanguageAuto Language = "auto"

// Languages lists the supported language codes.
func Languages() []Language {
	return []Language{
		"zh", "zh-TW",
		"en", "en-US", "en-GB",
		"ja", "ko",
		"fr", "de", "es", "ru", "ar", "pt", "it",
		LanguageAuto,
	}
}

// ParseLanguage validates a language code.
func ParseLanguage(value string) (Language, error) {
	lang := Language(strings.TrimSpace(value))
	for _, known := range Languages() {
		if lang == known {
			return lang, nil
		}
	}
	return "", fmt.Errorf("unsupported language code %q", value)
}

// OutputFormat selects the subtitle encoding written to disk.
type OutputFormat string

const (
	FormatSRT  OutputFormat = "srt"
	FormatVTT  OutputFormat = "vtt"
	FormatTXT  OutputFormat = "txt"
	FormatJSON OutputFormat = "json"
)

// OutputFormats lists the supported subtitle encodings.
func OutputFormats() []OutputFormat {
	return []OutputFormat{FormatSRT, FormatVTT, FormatTXT, FormatJSON}
}

// ParseOutputFormat validates an output format name.
func ParseOutputFormat(value string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range OutputFormats() {
		if format == known {
			return format, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", value)
}

// Ext returns the file extension for the format, without the dot.
func (f OutputFormat) Ext() string { return string(f) }

// Timestamped reports whether the format carries per-entry timing.
func (f OutputFormat) Timestamped() bool { return f != FormatTXT }

// WhisperModels lists the accepted local whisper model sizes.
func WhisperModels() []string {
	return []string{"tiny", "base", "small", "medium", "large"}
}

func validWhisperModel(model string) bool {
	for _, known := range WhisperModels() {
		if model == known {
			return true
		}
	}
	return false
}
