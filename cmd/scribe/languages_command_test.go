package main

import (
	"strings"
	"testing"
)

func TestLanguagesCommandListsDisplayNames(t *testing.T) {
	output, err := runCommand(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	for _, fragment := range []string{"ja", "Japanese", "auto", "Automatic detection"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("output missing %q: %q", fragment, output)
		}
	}
}

func TestFormatsCommandListsEncodings(t *testing.T) {
	output, err := runCommand(t, "formats")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	for _, fragment := range []string{"srt", "vtt", "txt", "json", "SubRip"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("output missing %q: %q", fragment, output)
		}
	}
}
