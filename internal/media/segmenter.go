package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// DefaultChunkSeconds is the fixed chunk duration policy used when an audio
// extraction exceeds a provider's payload limit. Twenty minutes of 48 kbps
// mono MP3 stays comfortably under a 25 MiB cap.
const DefaultChunkSeconds = 1200

// AudioUnit references a bounded span of audio handed to a provider. Offset
// is the unit's start within the full track. Temporary units are deleted by
// their creator once consumed.
type AudioUnit struct {
	Path      string
	Offset    float64
	Duration  float64
	Size      int64
	Temporary bool
}

// Segmenter keeps audio units within a provider's maximum payload size.
type Segmenter struct {
	transcoder   *Transcoder
	chunkSeconds int
	logger       *slog.Logger
}

// NewSegmenter builds a segmenter with the fixed chunk duration policy.
func NewSegmenter(transcoder *Transcoder, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Segmenter{
		transcoder:   transcoder,
		chunkSeconds: DefaultChunkSeconds,
		logger:       logger.With("component", "segmenter"),
	}
}

// ChunkSeconds returns the configured chunk duration policy.
func (s *Segmenter) ChunkSeconds() int { return s.chunkSeconds }

// Plan returns the audio units to transcribe for the given extraction. An
// extraction at or under limit bytes yields a single unit covering the whole
// file. A larger extraction is split into fixed-duration chunks; the original
// unsplit file is removed afterwards and each chunk is marked temporary so
// the consumer deletes it once transcribed. The final chunk's duration is
// probed from the file, not assumed.
func (s *Segmenter) Plan(ctx context.Context, audioPath string, limit int64) ([]AudioUnit, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("segment plan: stat audio: %w", err)
	}

	if info.Size() <= limit {
		duration, err := s.transcoder.Duration(ctx, audioPath)
		if err != nil {
			s.logger.Warn("audio duration unavailable", "path", audioPath, "error", err)
			duration = 0
		}
		return []AudioUnit{{
			Path:     audioPath,
			Offset:   0,
			Duration: duration,
			Size:     info.Size(),
		}}, nil
	}

	s.logger.Info("audio exceeds provider limit, splitting",
		"path", audioPath, "size", info.Size(), "limit", limit, "chunk_seconds", s.chunkSeconds)

	chunkPaths, err := s.transcoder.SplitAudio(ctx, audioPath, s.chunkSeconds)
	if err != nil {
		return nil, err
	}

	// The unsplit extraction is no longer needed once chunks exist.
	if err := os.Remove(audioPath); err != nil {
		s.logger.Warn("could not remove unsplit audio", "path", audioPath, "error", err)
	}

	units := make([]AudioUnit, 0, len(chunkPaths))
	for i, chunkPath := range chunkPaths {
		unit := AudioUnit{
			Path:      chunkPath,
			Offset:    float64(i * s.chunkSeconds),
			Duration:  float64(s.chunkSeconds),
			Temporary: true,
		}
		if chunkInfo, err := os.Stat(chunkPath); err == nil {
			unit.Size = chunkInfo.Size()
		}
		if i == len(chunkPaths)-1 {
			if actual, err := s.transcoder.Duration(ctx, chunkPath); err == nil {
				unit.Duration = actual
			} else {
				s.logger.Warn("final chunk duration unavailable", "path", chunkPath, "error", err)
			}
		}
		units = append(units, unit)
	}
	return units, nil
}

// Discard removes a temporary unit's backing file. Cleanup is best-effort:
// failures are logged, never escalated, and non-temporary units are left
// alone.
func (s *Segmenter) Discard(unit AudioUnit) {
	if !unit.Temporary {
		return
	}
	if err := os.Remove(unit.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove chunk file", "path", unit.Path, "error", err)
	}
}
