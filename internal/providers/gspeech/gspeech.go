// Package gspeech adapts the Google Cloud Speech-to-Text synchronous REST
// endpoint. Responses carry whole-track transcripts without per-segment
// timing, so the adapter reports no timestamp support.
package gspeech

import (
	"bytes"
	"context"
	"encoding/base64"
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

const (
	defaultEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

	remediation = "set GOOGLE_SPEECH_API_KEY (or GOOGLE_APPLICATION_CREDENTIALS for ambient credentials)"
)

// Adapter posts base64-encoded LINEAR16 audio to the recognize endpoint.
type Adapter struct {
	workDir    string
	endpoint   string
	httpClient *http.Client
	transcoder *media.Transcoder
	logger     *slog.Logger
}

// Option customizes the adapter.
type Option func(*Adapter)

// WithEndpoint overrides the API endpoint URL (useful for tests).
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

// New builds the Google Speech adapter.
func New(workDir string, transcoder *media.Transcoder, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	adapter := &Adapter{
		workDir:    workDir,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{},
		transcoder: transcoder,
		logger:     logger.With("component", "google_speech"),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

func (a *Adapter) Method() recognition.Method { return recognition.MethodGoogle }

func (a *Adapter) DisplayName() string { return "Google Speech" }

func (a *Adapter) SupportsTimestamps() bool { return false }

// Probe accepts either an API key or an application credentials file; either
// signals that a Google Cloud identity was configured.
func (a *Adapter) Probe() deps.Status {
	if key := deps.CheckEnv("Google Speech", "GOOGLE_SPEECH_API_KEY"); key.Available {
		return key
	}
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); creds != "" {
		return deps.CheckFile("Google Speech", creds)
	}
	return deps.Status{Name: "Google Speech", Detail: "environment variable GOOGLE_SPEECH_API_KEY not set"}
}

// Transcribe extracts 16 kHz WAV audio and posts it inline to the recognize
// endpoint. The REST call itself needs the API key; ambient credentials alone
// satisfy the probe but not a call.
func (a *Adapter) Transcribe(ctx context.Context, unit media.AudioUnit, cfg recognition.Config) (recognition.Result, error) {
	var empty recognition.Result

	if status := a.Probe(); !status.Available {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			status.Detail+"; "+remediation, nil)
	}
	apiKey := strings.TrimSpace(os.Getenv("GOOGLE_SPEECH_API_KEY"))
	if apiKey == "" {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			"the REST endpoint requires GOOGLE_SPEECH_API_KEY", nil)
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

	request := map[string]any{
		"config": map[string]any{
			"encoding":                   "LINEAR16",
			"sampleRateHertz":            16000,
			"languageCode":               requestLanguage(cfg.Language),
			"enableAutomaticPunctuation": cfg.EnablePunctuation,
		},
		"audio": map[string]any{
			"content": base64.StdEncoding.EncodeToString(audio),
		},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", "", err)
	}

	runCtx := ctx
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	endpoint := a.endpoint + "?key=" + apiKey
	req, err := http.NewRequestWithContext(runCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", a.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

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
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "decode response", err)
	}

	var parts []string
	for _, result := range decoded.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(result.Alternatives[0].Transcript))
		}
	}
	return recognition.TextResult(strings.Join(parts, " ")), nil
}

// requestLanguage maps the configured language to a BCP-47 language code.
// Auto-detect is not offered by the synchronous endpoint, so auto defaults to
// US English.
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
