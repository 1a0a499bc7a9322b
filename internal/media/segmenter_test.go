package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"scribe/internal/testsupport"
)

// fakeFFmpeg simulates ffmpeg/ffprobe. Split requests produce chunkCount
// files from the segment pattern; probe requests answer with a fixed
// duration.
func fakeFFmpeg(t *testing.T, chunkCount int, chunkBytes int64, duration string) CommandRunner {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		switch {
		case strings.Contains(joined, "-show_format"):
			return []byte(fmt.Sprintf(`{"format":{"duration":%q}}`, duration)), nil
		case strings.Contains(joined, "-f segment"):
			pattern := args[len(args)-1]
			for i := 0; i < chunkCount; i++ {
				testsupport.WriteFile(t, fmt.Sprintf(pattern, i), chunkBytes)
			}
			return nil, nil
		default:
			return nil, fmt.Errorf("unexpected command %s %s", name, joined)
		}
	}
}

func newTestSegmenter(t *testing.T, runner CommandRunner) *Segmenter {
	t.Helper()
	transcoder := NewTranscoder("ffmpeg", "ffprobe", nil)
	transcoder.WithCommandRunner(runner)
	return NewSegmenter(transcoder, nil)
}

func TestPlanSingleUnitAtLimit(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "talk_audio.mp3")
	testsupport.WriteFile(t, audioPath, 1000)

	segmenter := newTestSegmenter(t, fakeFFmpeg(t, 0, 0, "12.5"))

	units, err := segmenter.Plan(context.Background(), audioPath, 1000)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	unit := units[0]
	if unit.Path != audioPath || unit.Offset != 0 || unit.Temporary {
		t.Fatalf("unexpected unit: %+v", unit)
	}
	if unit.Duration != 12.5 {
		t.Fatalf("expected probed duration 12.5, got %v", unit.Duration)
	}
	if _, err := os.Stat(audioPath); err != nil {
		t.Fatalf("single-unit audio must survive: %v", err)
	}
}

func TestPlanSplitsOverLimit(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "talk_audio.mp3")
	testsupport.WriteFile(t, audioPath, 1001)

	segmenter := newTestSegmenter(t, fakeFFmpeg(t, 3, 400, "380.25"))

	units, err := segmenter.Plan(context.Background(), audioPath, 1000)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
	for i, unit := range units {
		if !unit.Temporary {
			t.Fatalf("chunk %d not marked temporary: %+v", i, unit)
		}
		if want := float64(i * DefaultChunkSeconds); unit.Offset != want {
			t.Fatalf("chunk %d offset = %v, want %v", i, unit.Offset, want)
		}
		if !strings.HasSuffix(unit.Path, "_00"+strconv.Itoa(i)+".mp3") {
			t.Fatalf("chunk %d path out of order: %s", i, unit.Path)
		}
	}
	if units[0].Duration != DefaultChunkSeconds || units[1].Duration != DefaultChunkSeconds {
		t.Fatalf("full chunks should assume the policy duration: %+v", units[:2])
	}
	if units[2].Duration != 380.25 {
		t.Fatalf("final chunk duration should be probed, got %v", units[2].Duration)
	}
	if _, err := os.Stat(audioPath); !os.IsNotExist(err) {
		t.Fatalf("unsplit audio should be removed after chunking, stat err = %v", err)
	}
}

func TestPlanMissingAudio(t *testing.T) {
	segmenter := newTestSegmenter(t, fakeFFmpeg(t, 0, 0, "1"))
	if _, err := segmenter.Plan(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"), 1000); err == nil {
		t.Fatal("expected error for missing audio file")
	}
}

func TestDiscardRemovesOnlyTemporaryUnits(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.mp3")
	drop := filepath.Join(dir, "drop.mp3")
	testsupport.WriteFile(t, keep, 10)
	testsupport.WriteFile(t, drop, 10)

	segmenter := newTestSegmenter(t, nil)
	segmenter.Discard(AudioUnit{Path: keep})
	segmenter.Discard(AudioUnit{Path: drop, Temporary: true})

	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("non-temporary unit removed: %v", err)
	}
	if _, err := os.Stat(drop); !os.IsNotExist(err) {
		t.Fatalf("temporary unit not removed, stat err = %v", err)
	}
}
