package subtitle

import (
	"strings"
	"testing"
)

func TestJSONToSRT(t *testing.T) {
	payload := []byte(`{"text":"Hello world","segments":[{"start":0,"end":5,"text":" Hello world "}]}`)

	got, err := JSONToSRT(payload)
	if err != nil {
		t.Fatalf("JSONToSRT: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:05,000\nHello world\n"
	if got != want {
		t.Fatalf("JSONToSRT = %q, want %q", got, want)
	}
}

func TestJSONToSRTWithoutSegments(t *testing.T) {
	got, err := JSONToSRT([]byte(`{"text":"no timing here"}`))
	if err != nil {
		t.Fatalf("JSONToSRT: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestJSONToSRTMalformed(t *testing.T) {
	if _, err := JSONToSRT([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestParseJSONSegmentsDefaultsMissingTimes(t *testing.T) {
	track, err := ParseJSONSegments([]byte(`{"segments":[{"text":"untimed"}]}`))
	if err != nil {
		t.Fatalf("ParseJSONSegments: %v", err)
	}
	if len(track) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(track))
	}
	if track[0].Start != 0 || track[0].End != 0 {
		t.Fatalf("expected zero defaults, got %+v", track[0])
	}
}

func TestFormatJSON(t *testing.T) {
	track := Track{
		{Index: 1, Start: 0, End: 5, Text: "Hello"},
		{Index: 2, Start: 5, End: 8, Text: "world"},
	}
	encoded, err := FormatJSON(track)
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	if !strings.Contains(encoded, `"text": "Hello world"`) {
		t.Fatalf("missing whole-track text: %s", encoded)
	}

	parsed, err := ParseJSONSegments([]byte(encoded))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(parsed) != 2 || parsed[1].Text != "world" {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestFormatText(t *testing.T) {
	track := Track{
		{Index: 1, Text: "First line"},
		{Index: 2, Text: ""},
		{Index: 3, Text: "Second line"},
	}
	want := "First line\nSecond line"
	if got := FormatText(track); got != want {
		t.Fatalf("FormatText = %q, want %q", got, want)
	}
}
