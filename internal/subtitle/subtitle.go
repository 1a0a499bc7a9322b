// Package subtitle holds the canonical in-memory subtitle representation and
// the converters between it and the supported on-disk encodings (SRT, VTT,
// JSON segment lists, plain text).
package subtitle

import "strings"

// Entry is a single subtitle cue. Start and End are seconds from the start of
// the track.
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Track is an ordered list of entries. A well-formed track has contiguous
// indices starting at 1 and non-decreasing start times.
type Track []Entry

// Renumber rewrites entry indices to be contiguous starting at 1.
func (t Track) Renumber() {
	for i := range t {
		t[i].Index = i + 1
	}
}

// Shift adds offset seconds to every entry's start and end time.
func (t Track) Shift(offset float64) {
	for i := range t {
		t[i].Start += offset
		t[i].End += offset
	}
}

// Text concatenates the entry texts with single spaces, dropping empties.
func (t Track) Text() string {
	parts := make([]string, 0, len(t))
	for _, entry := range t {
		if entry.Text != "" {
			parts = append(parts, entry.Text)
		}
	}
	return strings.Join(parts, " ")
}
