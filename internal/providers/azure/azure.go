// Package azure adapts the Azure Speech short-audio REST endpoint. The
// endpoint returns whole-track text without segment timing, so the adapter
// reports no timestamp support.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"scribe/internal/deps"
	"scribe/internal/media"
	"scribe/internal/recognition"
)

const remediation = "set AZURE_SPEECH_KEY and AZURE_SPEECH_REGION for your Azure Speech resource"

// Adapter posts extracted WAV audio to the region's recognition endpoint.
type Adapter struct {
	workDir    string
	endpoint   string
	httpClient *http.Client
	transcoder *media.Transcoder
	logger     *slog.Logger
}

// Option customizes the adapter.
type Option func(*Adapter)

// WithEndpoint overrides the regional endpoint URL (useful for tests).
func WithEndpoint(endpoint string) Option {
	return func(a *Adapter) { a.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// New builds the Azure Speech adapter. Credentials are read from the
// environment at probe and call time.
func New(workDir string, transcoder *media.Transcoder, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	adapter := &Adapter{
		workDir:    workDir,
		httpClient: &http.Client{},
		transcoder: transcoder,
		logger:     logger.With("component", "azure_speech"),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

func (a *Adapter) Method() recognition.Method { return recognition.MethodAzure }

func (a *Adapter) DisplayName() string { return "Azure Speech" }

func (a *Adapter) SupportsTimestamps() bool { return false }

// Probe reports whether the Azure credential environment is configured.
func (a *Adapter) Probe() deps.Status {
	return deps.CheckEnv("Azure Speech", "AZURE_SPEECH_KEY", "AZURE_SPEECH_REGION")
}

// Transcribe extracts WAV audio and posts it to the short-audio endpoint,
// returning the recognized text.
func (a *Adapter) Transcribe(ctx context.Context, unit media.AudioUnit, cfg recognition.Config) (recognition.Result, error) {
	var empty recognition.Result

	if status := a.Probe(); !status.Available {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			status.Detail+"; "+remediation, nil)
	}
	if info, err := os.Stat(unit.Path); err != nil || info.Size() == 0 {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			fmt.Sprintf("audio unit missing or empty: %s", unit.Path), nil)
	}

	audioPath, err := a.transcoder.ExtractAudio(ctx, unit.Path, a.workDir, media.FormatWAV, "")
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "extract audio", "", err)
	}
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "read audio", audioPath, err)
	}

	runCtx := ctx
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	endpoint := a.resolveEndpoint()
	req, err := http.NewRequestWithContext(runCtx, http.MethodPost,
		endpoint+"?language="+requestLanguage(cfg.Language)+"&format=detailed", bytes.NewReader(audio))
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", endpoint, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", os.Getenv("AZURE_SPEECH_KEY"))
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	a.logger.Info("recognizing audio", "bytes", len(audio))
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return empty, recognition.Wrap(recognition.ErrTimeout, a.Method(), "transcribe",
				fmt.Sprintf("request exceeded %d seconds", cfg.TimeoutSeconds), nil)
		}
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	var decoded struct {
		RecognitionStatus string `json:"RecognitionStatus"`
		DisplayText       string `json:"DisplayText"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "decode response", err)
	}
	if decoded.RecognitionStatus != "" && decoded.RecognitionStatus != "Success" {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe",
			"recognition status "+decoded.RecognitionStatus, nil)
	}
	return recognition.TextResult(decoded.DisplayText), nil
}

func (a *Adapter) resolveEndpoint() string {
	if a.endpoint != "" {
		return a.endpoint
	}
	region := strings.TrimSpace(os.Getenv("AZURE_SPEECH_REGION"))
	return fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region)
}

// requestLanguage maps the configured language to a BCP-47 locale. The
// endpoint has no auto-detect mode, so auto falls back to US English.
func requestLanguage(language recognition.Language) string {
	switch language {
	case recognition.LanguageAuto:
		return "en-US"
	case "zh":
		return "zh-CN"
	case "en":
		return "en-US"
	case "ja":
		return "ja-JP"
	case "ko":
		return "ko-KR"
	case "fr":
		return "fr-FR"
	case "de":
		return "de-DE"
	case "es":
		return "es-ES"
	case "ru":
		return "ru-RU"
	case "ar":
		return "ar-SA"
	case "pt":
		return "pt-BR"
	case "it":
		return "it-IT"
	default:
		return string(language)
	}
}
