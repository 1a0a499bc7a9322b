package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"scribe/internal/media"
)

// Recognizer is the top-level dispatcher: it selects a provider adapter,
// invokes it, normalizes the raw result into the requested subtitle format,
// and on an eligible failure retries once with the configured fallback
// provider.
type Recognizer struct {
	registry   *Registry
	transcoder *media.Transcoder
	avail      Availability
	logger     *slog.Logger
}

// NewRecognizer snapshots provider availability once, at construction. The
// snapshot is immutable; create a new recognizer to re-probe the
// environment.
func NewRecognizer(registry *Registry, transcoder *media.Transcoder, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recognizer{
		registry:   registry,
		transcoder: transcoder,
		avail:      ProbeAvailability(registry),
		logger:     logger.With("component", "recognizer"),
	}
}

// Availability returns the construction-time availability snapshot.
func (r *Recognizer) Availability() Availability {
	snapshot := make(Availability, len(r.avail))
	for method, available := range r.avail {
		snapshot[method] = available
	}
	return snapshot
}

// GenerateSubtitle produces a subtitle file for the given media file and
// returns its path. When outputPath is empty the input path with the output
// format's extension is used. All work within a call is sequential; the only
// retry is a single fallback attempt, and the fallback attempt re-runs the
// whole pipeline with fallback disabled.
func (r *Recognizer) GenerateSubtitle(ctx context.Context, mediaPath, outputPath string, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", Wrap(ErrInput, cfg.Method, "validate", err.Error(), nil)
	}

	info, err := os.Stat(mediaPath)
	if err != nil {
		return "", Wrap(ErrInput, cfg.Method, "input", fmt.Sprintf("media file not found: %s", mediaPath), nil)
	}
	if info.Size() == 0 {
		return "", Wrap(ErrInput, cfg.Method, "input", fmt.Sprintf("media file is empty: %s", mediaPath), nil)
	}

	if outputPath == "" {
		ext := filepath.Ext(mediaPath)
		outputPath = strings.TrimSuffix(mediaPath, ext) + "." + cfg.OutputFormat.Ext()
	}

	logger := r.logger.With("request_id", uuid.NewString(), "media", mediaPath)

	// Two attempts at most: primary, then the forced non-fallback secondary.
	attempt := cfg
	for {
		logger.Info("starting recognition attempt",
			"method", string(attempt.Method), "format", string(attempt.OutputFormat))

		path, attemptErr := r.runAttempt(ctx, logger, mediaPath, outputPath, attempt)
		if attemptErr == nil {
			logger.Info("subtitle generated", "method", string(attempt.Method), "output", path)
			return path, nil
		}

		fallback, ok := r.fallbackFor(attempt, cfg, attemptErr)
		if !ok {
			return "", attemptErr
		}
		logger.Warn("primary method failed, trying fallback",
			"method", string(attempt.Method),
			"fallback", string(fallback.Method),
			"error", attemptErr)
		attempt = fallback
	}
}

// fallbackFor decides whether a failed attempt transitions to the fallback
// attempt. The fallback config always has fallback disabled, which bounds the
// loop to two attempts.
func (r *Recognizer) fallbackFor(attempt, original Config, err error) (Config, bool) {
	if !attempt.EnableFallback {
		return Config{}, false
	}
	if !FallbackEligible(err) {
		return Config{}, false
	}
	if original.FallbackMethod == attempt.Method {
		return Config{}, false
	}
	if !r.avail.IsAvailable(original.FallbackMethod) {
		return Config{}, false
	}
	fallback := attempt
	fallback.Method = original.FallbackMethod
	fallback.EnableFallback = false
	// The model whitelist binds to the local provider only; a remote model
	// name would fail validation when falling back to whisper_local.
	if fallback.Method == MethodWhisperLocal && !validWhisperModel(fallback.Model) {
		fallback.Model = "base"
	}
	return fallback, true
}

func (r *Recognizer) runAttempt(ctx context.Context, logger *slog.Logger, mediaPath, outputPath string, cfg Config) (string, error) {
	provider, ok := r.registry.Lookup(cfg.Method)
	if !ok {
		return "", Wrap(ErrUnavailable, cfg.Method, "dispatch", "no adapter registered for method", nil)
	}

	unit := media.AudioUnit{Path: mediaPath}
	if info, err := os.Stat(mediaPath); err == nil {
		unit.Size = info.Size()
	}

	result, err := provider.Transcribe(ctx, unit, cfg)
	if err != nil {
		return "", err
	}

	content, sidecar := r.normalize(ctx, logger, result, cfg, unit)
	if err := writeFileAtomic(outputPath, content); err != nil {
		return "", Wrap(ErrRecognition, cfg.Method, "write output", outputPath, err)
	}

	if cfg.OutputFormat != FormatSRT && sidecar != "" {
		sidecarPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".srt"
		if err := writeFileAtomic(sidecarPath, sidecar); err != nil {
			logger.Warn("could not write srt sidecar", "path", sidecarPath, "error", err)
		} else {
			logger.Info("wrote srt sidecar", "path", sidecarPath)
		}
	}
	return outputPath, nil
}

// writeFileAtomic writes via a temp file and rename so a failed call never
// leaves a partially written output file.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
