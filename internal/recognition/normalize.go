package recognition

import (
	"context"
	"log/slog"
	"strings"

	"scribe/internal/media"
	"scribe/internal/subtitle"
)

// normalize turns a raw provider result into the primary document for the
// requested format plus, when the format is not SRT and the data allows it,
// an SRT rendition for the sidecar file. Conversion problems never fail the
// call: they are logged and degrade to pass-through or an empty sidecar.
func (r *Recognizer) normalize(ctx context.Context, logger *slog.Logger, result Result, cfg Config, unit media.AudioUnit) (content, sidecar string) {
	switch result.Kind {
	case KindFormatted:
		return result.Payload, r.sidecarFromFormatted(logger, result)
	case KindSegments:
		return r.renderTrack(logger, result.Segments, cfg.OutputFormat)
	case KindText:
		if cfg.OutputFormat == FormatTXT {
			return result.Text, ""
		}
		// The provider cannot produce segment timing; a timestamped format
		// degrades to a single entry spanning the whole unit.
		duration := unit.Duration
		if duration == 0 {
			probed, err := r.transcoder.Duration(ctx, unit.Path)
			if err != nil {
				logger.Warn("unit duration unavailable, degraded entry spans zero seconds",
					"path", unit.Path, "error", err)
			} else {
				duration = probed
			}
		}
		track := subtitle.Track{{Index: 1, Start: 0, End: duration, Text: strings.TrimSpace(result.Text)}}
		return r.renderTrack(logger, track, cfg.OutputFormat)
	default:
		logger.Warn("unknown result kind", "kind", int(result.Kind))
		return "", ""
	}
}

func (r *Recognizer) renderTrack(logger *slog.Logger, track subtitle.Track, format OutputFormat) (content, sidecar string) {
	track.Renumber()
	srt := subtitle.FormatSRT(track)
	switch format {
	case FormatSRT:
		return srt, ""
	case FormatVTT:
		return subtitle.FormatVTT(track), srt
	case FormatJSON:
		encoded, err := subtitle.FormatJSON(track)
		if err != nil {
			logger.Warn("could not encode segments json", "error", err)
			return "", srt
		}
		return encoded, srt
	case FormatTXT:
		return subtitle.FormatText(track), srt
	default:
		return srt, ""
	}
}

// sidecarFromFormatted best-effort converts an already formatted document to
// SRT. A document that cannot express timing (plain text) yields no sidecar.
func (r *Recognizer) sidecarFromFormatted(logger *slog.Logger, result Result) string {
	switch result.Format {
	case FormatSRT:
		return ""
	case FormatVTT:
		return subtitle.VTTToSRT(result.Payload)
	case FormatJSON:
		srt, err := subtitle.JSONToSRT([]byte(result.Payload))
		if err != nil {
			logger.Warn("could not convert json result to srt", "error", Wrap(ErrConversion, "", "sidecar", "", err))
			return ""
		}
		if srt == "" {
			logger.Warn("json result has no segments, skipping srt sidecar")
		}
		return srt
	default:
		return ""
	}
}
