package recognition

import "scribe/internal/subtitle"

// ResultKind tags the shape of a provider's raw output.
type ResultKind int

const (
	// KindFormatted is a pre-formatted subtitle document in Result.Format.
	KindFormatted ResultKind = iota
	// KindSegments is a structured list of timed segments.
	KindSegments
	// KindText is a whole-track text blob without timing.
	KindText
)

// Result is the raw outcome of one provider call. It is consumed by the
// dispatcher's normalization step immediately after the call that produced
// it and never retained.
type Result struct {
	Kind ResultKind

	// Payload holds the document for KindFormatted; Format names its
	// encoding.
	Payload string
	Format  OutputFormat

	// Segments holds the timed entries for KindSegments.
	Segments subtitle.Track

	// Text holds the transcript for KindText.
	Text string
}

// FormattedResult wraps a provider document that is already in its final
// encoding.
func FormattedResult(format OutputFormat, payload string) Result {
	return Result{Kind: KindFormatted, Format: format, Payload: payload}
}

// SegmentsResult wraps structured provider segments.
func SegmentsResult(track subtitle.Track) Result {
	return Result{Kind: KindSegments, Segments: track}
}

// TextResult wraps a whole-track transcript without timing.
func TextResult(text string) Result {
	return Result{Kind: KindText, Text: text}
}
