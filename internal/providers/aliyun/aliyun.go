// Package aliyun adapts the Alibaba Cloud NLS short-sentence recognition
// gateway. The endpoint answers with whole-track text only, so the adapter
// reports no timestamp support.
package aliyun

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

const (
	defaultEndpoint = "https://nls-gateway.cn-shanghai.aliyuncs.com/stream/v1/asr"

	remediation = "set ALIYUN_ACCESS_KEY_ID, ALIYUN_ACCESS_KEY_SECRET and ALIYUN_SPEECH_APP_KEY, plus ALIYUN_NLS_TOKEN for the gateway call"
)

// Adapter posts raw PCM audio to the NLS gateway.
type Adapter struct {
	workDir    string
	endpoint   string
	httpClient *http.Client
	transcoder *media.Transcoder
	logger     *slog.Logger
}

// Option customizes the adapter.
type Option func(*Adapter)

// WithEndpoint overrides the gateway URL (useful for tests).
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

// New builds the Aliyun Speech adapter.
func New(workDir string, transcoder *media.Transcoder, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	adapter := &Adapter{
		workDir:    workDir,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{},
		transcoder: transcoder,
		logger:     logger.With("component", "aliyun_speech"),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

func (a *Adapter) Method() recognition.Method { return recognition.MethodAliyun }

func (a *Adapter) DisplayName() string { return "Aliyun Speech" }

func (a *Adapter) SupportsTimestamps() bool { return false }

// Probe reports whether the Aliyun credential environment is configured.
func (a *Adapter) Probe() deps.Status {
	return deps.CheckEnv("Aliyun Speech",
		"ALIYUN_ACCESS_KEY_ID", "ALIYUN_ACCESS_KEY_SECRET", "ALIYUN_SPEECH_APP_KEY")
}

// Transcribe extracts 16 kHz WAV audio and streams it to the gateway. The
// gateway authenticates with a short-lived NLS token, taken from
// ALIYUN_NLS_TOKEN; minting tokens from the access key pair is out of scope.
func (a *Adapter) Transcribe(ctx context.Context, unit media.AudioUnit, cfg recognition.Config) (recognition.Result, error) {
	var empty recognition.Result

	if status := a.Probe(); !status.Available {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			status.Detail+"; "+remediation, nil)
	}
	token := strings.TrimSpace(os.Getenv("ALIYUN_NLS_TOKEN"))
	if token == "" {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			"environment variable ALIYUN_NLS_TOKEN not set; "+remediation, nil)
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

	query := fmt.Sprintf("?appkey=%s&format=pcm&sample_rate=16000&enable_punctuation_prediction=%t",
		os.Getenv("ALIYUN_SPEECH_APP_KEY"), cfg.EnablePunctuation)
	req, err := http.NewRequestWithContext(runCtx, http.MethodPost, a.endpoint+query, bytes.NewReader(audio))
	if err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "build request", a.endpoint, err)
	}
	req.Header.Set("X-NLS-Token", token)
	req.Header.Set("Content-Type", "application/octet-stream")

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
		Status  int    `json:"status"`
		Message string `json:"message"`
		Result  string `json:"result"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", "decode response", err)
	}
	if decoded.Status != 0 && decoded.Status != http.StatusOK && decoded.Status != 20000000 {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe",
			fmt.Sprintf("gateway status %d: %s", decoded.Status, decoded.Message), nil)
	}
	return recognition.TextResult(decoded.Result), nil
}
