package recognition

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrTimeout, MethodWhisperLocal, "transcribe", "exceeded 30 seconds", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("marker lost: %v", err)
	}
	if !strings.Contains(err.Error(), "whisper_local") || !strings.Contains(err.Error(), "exceeded 30 seconds") {
		t.Fatalf("context lost: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrRecognition, MethodOpenAI, "transcribe", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, MethodOpenAI, "transcribe", "boom", nil)
	if !errors.Is(err, ErrRecognition) {
		t.Fatalf("expected recognition marker, got %v", err)
	}
}

func TestFallbackEligible(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"input", Wrap(ErrInput, MethodWhisperLocal, "input", "missing", nil), false},
		{"unavailable", Wrap(ErrUnavailable, MethodWhisperLocal, "prerequisites", "", nil), true},
		{"timeout", Wrap(ErrTimeout, MethodWhisperLocal, "transcribe", "", nil), true},
		{"recognition", Wrap(ErrRecognition, MethodWhisperLocal, "transcribe", "", nil), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FallbackEligible(tc.err); got != tc.want {
				t.Fatalf("FallbackEligible(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
