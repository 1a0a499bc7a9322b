// Package openai adapts the OpenAI audio transcription API (and compatible
// endpoints) to the recognition provider contract. The API caps uploads at
// 25 MiB, so larger extractions are split into fixed-duration chunks which
// are transcribed sequentially and re-merged with their time offsets.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/deps"
	"scribe/internal/media"
	"scribe/internal/recognition"
	"scribe/internal/subtitle"
)

const (
	// MaxUploadBytes is the provider's fixed payload limit.
	MaxUploadBytes = 25 * 1024 * 1024

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "whisper-1"

	// Extraction settings chosen for size headroom: 48 kbps mono MP3 keeps
	// about 72 minutes of audio under the 25 MiB cap.
	extractBitrate = "48k"

	remediation = "configure openai.api_key or set the OPENAI_API_KEY environment variable"
)

// Adapter calls the transcription endpoint over HTTP.
type Adapter struct {
	apiKey     string
	baseURL    string
	workDir    string
	httpClient *http.Client
	transcoder *media.Transcoder
	segmenter  *media.Segmenter
	logger     *slog.Logger
}

// Option customizes the adapter.
type Option func(*Adapter)

// WithHTTPClient overrides the default HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// New builds the OpenAI adapter. Empty credentials fall back to the
// OPENAI_API_KEY / OPENAI_BASE_URL environment variables at call time.
func New(apiKey, baseURL, workDir string, transcoder *media.Transcoder, segmenter *media.Segmenter, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	adapter := &Adapter{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		workDir:    workDir,
		httpClient: &http.Client{},
		transcoder: transcoder,
		segmenter:  segmenter,
		logger:     logger.With("component", "openai_api"),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

func (a *Adapter) Method() recognition.Method { return recognition.MethodOpenAI }

func (a *Adapter) DisplayName() string { return "OpenAI API" }

func (a *Adapter) SupportsTimestamps() bool { return true }

// Probe reports whether an API key is configured.
func (a *Adapter) Probe() deps.Status {
	status := deps.Status{Name: "OpenAI API"}
	if a.resolveKey(recognition.Config{}) == "" {
		status.Detail = "environment variable OPENAI_API_KEY not set"
		return status
	}
	status.Available = true
	return status
}

// Transcribe extracts compressed audio from the unit, splits it when it
// exceeds the upload cap, and transcribes chunk by chunk in order. A chunk
// failure aborts the whole call; chunk files are removed either way.
func (a *Adapter) Transcribe(ctx context.Context, unit media.AudioUnit, cfg recognition.Config) (recognition.Result, error) {
	var empty recognition.Result

	key := a.resolveKey(cfg)
	if key == "" {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites", remediation, nil)
	}
	if info, err := os.Stat(unit.Path); err != nil || info.Size() == 0 {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			fmt.Sprintf("audio unit missing or empty: %s", unit.Path), nil)
	}

	audioPath, err := a.transcoder.ExtractAudio(ctx, unit.Path, a.workDir, media.FormatMP3, extractBitrate)
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "extract audio", "", err)
	}

	units, err := a.segmenter.Plan(ctx, audioPath, MaxUploadBytes)
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "segment audio", "", err)
	}

	responseFormat := apiResponseFormat(cfg.OutputFormat)

	if len(units) == 1 && !units[0].Temporary {
		content, err := a.transcribeFile(ctx, key, units[0].Path, responseFormat, cfg)
		if err != nil {
			return empty, err
		}
		return recognition.FormattedResult(cfg.OutputFormat, content), nil
	}

	content, err := a.transcribeChunks(ctx, key, units, responseFormat, cfg)
	if err != nil {
		return empty, err
	}
	return recognition.FormattedResult(cfg.OutputFormat, content), nil
}

func (a *Adapter) transcribeChunks(ctx context.Context, key string, units []media.AudioUnit, responseFormat string, cfg recognition.Config) (string, error) {
	// Whatever happens below, no chunk file survives the call.
	defer func() {
		for _, unit := range units {
			a.segmenter.Discard(unit)
		}
	}()

	a.logger.Info("transcribing chunked audio", "chunks", len(units))

	var chunks []subtitle.ChunkResult
	var rawParts []string
	for i, unit := range units {
		a.logger.Info("transcribing chunk", "index", i+1, "total", len(units), "offset", unit.Offset)
		content, err := a.transcribeFile(ctx, key, unit.Path, responseFormat, cfg)
		if err != nil {
			return "", err
		}
		a.segmenter.Discard(units[i])
		if responseFormat == "srt" {
			chunks = append(chunks, subtitle.ChunkResult{Content: content, Offset: unit.Offset})
		} else {
			// Only SRT supports offset-aware merging; other formats are
			// concatenated as-is.
			rawParts = append(rawParts, content)
		}
	}

	if responseFormat == "srt" {
		return subtitle.MergeChunks(chunks), nil
	}
	return strings.Join(rawParts, "\n"), nil
}

func (a *Adapter) transcribeFile(ctx context.Context, key, path, responseFormat string, cfg recognition.Config) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"model":           a.resolveModel(cfg),
		"response_format": responseFormat,
	}
	if cfg.Language != recognition.LanguageAuto {
		fields["language"] = string(cfg.Language)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", "", err)
		}
	}

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", "", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "open audio", path, err)
	}
	_, copyErr := io.Copy(part, file)
	_ = file.Close()
	if copyErr != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "read audio", path, copyErr)
	}
	if err := writer.Close(); err != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", "", err)
	}

	runCtx := ctx
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	endpoint := a.resolveBaseURL(cfg) + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(runCtx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", recognition.Wrap(recognition.ErrTimeout, a.Method(), "transcribe",
				fmt.Sprintf("request exceeded %d seconds", cfg.TimeoutSeconds), nil)
		}
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe",
			fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(payload)), nil)
	}

	content := string(payload)
	// Some compatible endpoints answer JSON even when SRT was requested;
	// convert rather than hand the caller the wrong encoding.
	if responseFormat == "srt" && looksLikeSegmentsJSON(content) {
		if converted, err := subtitle.JSONToSRT(payload); err == nil && converted != "" {
			a.logger.Warn("endpoint returned json for srt request, converted")
			content = converted
		}
	}
	return content, nil
}

func (a *Adapter) resolveKey(cfg recognition.Config) string {
	if cfg.OpenAIAPIKey != "" {
		return cfg.OpenAIAPIKey
	}
	if a.apiKey != "" {
		return a.apiKey
	}
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

func (a *Adapter) resolveBaseURL(cfg recognition.Config) string {
	if cfg.OpenAIBaseURL != "" {
		return strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	if a.baseURL != "" {
		return a.baseURL
	}
	if env := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); env != "" {
		return strings.TrimRight(env, "/")
	}
	return defaultBaseURL
}

// resolveModel maps the config model to an API model name. Local whisper
// size names select the default API model; anything else passes through for
// compatible endpoints.
func (a *Adapter) resolveModel(cfg recognition.Config) string {
	model := strings.TrimSpace(cfg.Model)
	if model == "" || isLocalModelName(model) {
		return defaultModel
	}
	return model
}

func isLocalModelName(model string) bool {
	switch model {
	case "tiny", "base", "small", "medium", "large", "turbo":
		return true
	}
	return false
}

func apiResponseFormat(format recognition.OutputFormat) string {
	if format == recognition.FormatTXT {
		return "text"
	}
	return string(format)
}

func looksLikeSegmentsJSON(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, "segments")
}

func snippet(payload []byte) string {
	text := strings.TrimSpace(string(payload))
	if len(text) > 300 {
		text = text[:300] + "..."
	}
	return text
}
