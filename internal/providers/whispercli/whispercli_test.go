package whispercli

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/media"
	"scribe/internal/recognition"
	"scribe/internal/testsupport"
)

func stubBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whisper")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func testConfig() recognition.Config {
	return recognition.Config{
		Method:       recognition.MethodWhisperLocal,
		Language:     recognition.LanguageAuto,
		Model:        "base",
		OutputFormat: recognition.FormatSRT,
	}
}

const producedSRT = "1\n00:00:00,000 --> 00:00:03,000\nstub output\n"

func TestTranscribeReadsProducedFile(t *testing.T) {
	workDir := t.TempDir()
	adapter := New(stubBinary(t), workDir, nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	var capturedArgs []string
	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		capturedArgs = args
		output := filepath.Join(workDir, "talk.srt")
		return nil, os.WriteFile(output, []byte(producedSRT), 0o644)
	})

	result, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, testConfig())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Kind != recognition.KindFormatted || result.Payload != producedSRT {
		t.Fatalf("unexpected result: %+v", result)
	}

	joined := strings.Join(capturedArgs, " ")
	for _, fragment := range []string{"--output_dir " + workDir, "--output_format srt", "--model base"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("missing %q in args: %s", fragment, joined)
		}
	}
	if strings.Contains(joined, "--language") {
		t.Fatalf("auto language must omit the flag: %s", joined)
	}

	if _, err := os.Stat(filepath.Join(workDir, "talk.srt")); !os.IsNotExist(err) {
		t.Fatalf("scratch file should be removed, stat err = %v", err)
	}
}

func TestTranscribePassesExplicitLanguage(t *testing.T) {
	workDir := t.TempDir()
	adapter := New(stubBinary(t), workDir, nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	var capturedArgs []string
	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		capturedArgs = args
		return nil, os.WriteFile(filepath.Join(workDir, "talk.srt"), []byte(producedSRT), 0o644)
	})

	cfg := testConfig()
	cfg.Language = "ja"
	if _, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, cfg); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(strings.Join(capturedArgs, " "), "--language ja") {
		t.Fatalf("language flag missing: %v", capturedArgs)
	}
}

func TestTranscribeMissingBinaryIsUnavailable(t *testing.T) {
	adapter := New(filepath.Join(t.TempDir(), "no-such-whisper"), t.TempDir(), nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	_, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, testConfig())
	if !errors.Is(err, recognition.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestTranscribeMissingUnitIsUnavailable(t *testing.T) {
	adapter := New(stubBinary(t), t.TempDir(), nil)

	_, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: "/nonexistent/audio.mp4"}, testConfig())
	if !errors.Is(err, recognition.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestTranscribeCommandFailureIsRecognitionError(t *testing.T) {
	adapter := New(stubBinary(t), t.TempDir(), nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("CUDA out of memory"), errors.New("exit status 1")
	})

	_, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, testConfig())
	if !errors.Is(err, recognition.ErrRecognition) {
		t.Fatalf("expected recognition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("command output lost: %v", err)
	}
}

func TestTranscribeTimeoutClassification(t *testing.T) {
	adapter := New(stubBinary(t), t.TempDir(), nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	cfg := testConfig()
	cfg.TimeoutSeconds = 1
	_, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, cfg)
	if !errors.Is(err, recognition.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestTranscribeNotFoundIsUnavailable(t *testing.T) {
	adapter := New(stubBinary(t), t.TempDir(), nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, exec.ErrNotFound
	})

	_, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, testConfig())
	if !errors.Is(err, recognition.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestTranscribeNoOutputFileIsRecognitionError(t *testing.T) {
	adapter := New(stubBinary(t), t.TempDir(), nil)

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, mediaPath, 128)

	adapter.WithCommandRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	})

	_, err := adapter.Transcribe(context.Background(), media.AudioUnit{Path: mediaPath}, testConfig())
	if !errors.Is(err, recognition.ErrRecognition) {
		t.Fatalf("expected recognition error, got %v", err)
	}
}

func TestProbeReportsMissingBinary(t *testing.T) {
	adapter := New(filepath.Join(t.TempDir(), "no-such-whisper"), t.TempDir(), nil)
	if status := adapter.Probe(); status.Available {
		t.Fatal("probe must fail for a missing binary")
	}

	adapter = New(stubBinary(t), t.TempDir(), nil)
	if status := adapter.Probe(); !status.Available {
		t.Fatalf("probe should succeed for a stub binary: %+v", status)
	}
}
