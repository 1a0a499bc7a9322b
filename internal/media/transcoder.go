// Package media wraps the external transcoder (ffmpeg/ffprobe) and decides
// when an audio extraction must be split to satisfy a provider payload limit.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// AudioFormat selects the codec for extracted audio.
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
)

// transcodeTimeout bounds a single ffmpeg invocation. Recognition timeouts
// are configured separately; this only guards the local transcode step.
const transcodeTimeout = 10 * time.Minute

// CommandRunner executes an external command and returns its combined output.
// Injectable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Transcoder shells out to ffmpeg and ffprobe.
type Transcoder struct {
	ffmpeg  string
	ffprobe string
	runner  CommandRunner
	logger  *slog.Logger
}

// NewTranscoder builds a transcoder around the given binaries. Empty names
// fall back to plain "ffmpeg"/"ffprobe" resolved on PATH.
func NewTranscoder(ffmpeg, ffprobe string, logger *slog.Logger) *Transcoder {
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transcoder{ffmpeg: ffmpeg, ffprobe: ffprobe, logger: logger.With("component", "transcoder")}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcoder) WithCommandRunner(runner CommandRunner) {
	t.runner = runner
}

// FFmpegBinary returns the configured ffmpeg executable name.
func (t *Transcoder) FFmpegBinary() string { return t.ffmpeg }

func (t *Transcoder) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if t.runner != nil {
		return t.runner(ctx, name, args...)
	}
	runCtx, cancel := context.WithTimeout(ctx, transcodeTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// ExtractAudio pulls the audio stream out of a media file into targetDir.
// WAV output is mono 16 kHz PCM; MP3 output is mono at the requested bitrate.
// The call is idempotent: when the destination file already exists it is
// returned without re-encoding.
func (t *Transcoder) ExtractAudio(ctx context.Context, source, targetDir string, format AudioFormat, bitrate string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	dest := filepath.Join(targetDir, fmt.Sprintf("%s_audio.%s", stem, format))

	if _, err := os.Stat(dest); err == nil {
		t.logger.Debug("audio already extracted", "path", dest)
		return dest, nil
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("extract audio: ensure target dir: %w", err)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
	}
	switch format {
	case FormatMP3:
		if bitrate == "" {
			bitrate = "64k"
		}
		args = append(args, "-acodec", "libmp3lame", "-ac", "1", "-b:a", bitrate)
	case FormatWAV:
		args = append(args, "-acodec", "pcm_s16le", "-ar", "16000", "-ac", "1")
	default:
		return "", fmt.Errorf("extract audio: unsupported format %q", format)
	}
	args = append(args, dest)

	t.logger.Info("extracting audio", "source", source, "dest", dest, "format", string(format))
	if _, err := t.run(ctx, t.ffmpeg, args...); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("extract audio: %w", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return "", fmt.Errorf("extract audio: output file missing: %w", err)
	}
	return dest, nil
}

// SplitAudio cuts an audio file into consecutive chunks of chunkSeconds using
// the stream copier, returning the ordered chunk paths. The final chunk may
// be shorter than chunkSeconds.
func (t *Transcoder) SplitAudio(ctx context.Context, audioPath string, chunkSeconds int) ([]string, error) {
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("split audio: invalid chunk duration %d", chunkSeconds)
	}
	dir := filepath.Dir(audioPath)
	ext := filepath.Ext(audioPath)
	stem := strings.TrimSuffix(filepath.Base(audioPath), ext)
	pattern := filepath.Join(dir, fmt.Sprintf("%s_%%03d%s", stem, ext))

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		pattern,
	}
	t.logger.Info("splitting audio", "source", audioPath, "chunk_seconds", chunkSeconds)
	if _, err := t.run(ctx, t.ffmpeg, args...); err != nil {
		return nil, fmt.Errorf("split audio: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, stem+"_*"+ext))
	if err != nil {
		return nil, fmt.Errorf("split audio: list chunks: %w", err)
	}
	chunks := matches[:0]
	for _, match := range matches {
		if filepath.Base(match) != filepath.Base(audioPath) {
			chunks = append(chunks, match)
		}
	}
	sort.Strings(chunks)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("split audio: no chunks produced for %s", audioPath)
	}
	return chunks, nil
}

// Duration reports a media file's duration in seconds via ffprobe.
func (t *Transcoder) Duration(ctx context.Context, path string) (float64, error) {
	output, err := t.run(ctx, t.ffprobe,
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-of", "json",
		"--", path,
	)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	var probed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probed); err != nil {
		return 0, fmt.Errorf("probe duration: parse: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("probe duration: parse %q: %w", probed.Format.Duration, err)
	}
	return seconds, nil
}
