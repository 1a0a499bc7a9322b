package subtitle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Segment is a provider-reported span of recognized speech. It mirrors the
// JSON shape emitted by Whisper-style transcription APIs.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type segmentPayload struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// ParseJSONSegments decodes a JSON transcription payload into a Track. A
// payload without a "segments" key produces an empty track and no error; the
// caller decides whether that means SRT output is impossible. Missing start or
// end values default to zero.
func ParseJSONSegments(data []byte) (Track, error) {
	var payload segmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse segments json: %w", err)
	}
	track := make(Track, 0, len(payload.Segments))
	for i, segment := range payload.Segments {
		track = append(track, Entry{
			Index: i + 1,
			Start: segment.Start,
			End:   segment.End,
			Text:  strings.TrimSpace(segment.Text),
		})
	}
	return track, nil
}

// JSONToSRT converts a JSON transcription payload straight to SRT text. A
// payload without segments yields an empty string.
func JSONToSRT(data []byte) (string, error) {
	track, err := ParseJSONSegments(data)
	if err != nil {
		return "", err
	}
	if len(track) == 0 {
		return "", nil
	}
	return FormatSRT(track), nil
}

// FormatJSON renders a track as a JSON payload with the whole-track text and
// the segment list, matching the provider JSON shape.
func FormatJSON(track Track) (string, error) {
	payload := segmentPayload{
		Text:     track.Text(),
		Segments: make([]Segment, 0, len(track)),
	}
	for _, entry := range track {
		payload.Segments = append(payload.Segments, Segment{
			Start: entry.Start,
			End:   entry.End,
			Text:  entry.Text,
		})
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode segments json: %w", err)
	}
	return string(encoded), nil
}

// FormatText renders only the spoken text, one entry per line.
func FormatText(track Track) string {
	lines := make([]string, 0, len(track))
	for _, entry := range track {
		if entry.Text != "" {
			lines = append(lines, entry.Text)
		}
	}
	return strings.Join(lines, "\n")
}
