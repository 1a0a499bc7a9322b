package recognition

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the recognition error taxonomy. Adapters tag every
// failure with one of these so the dispatcher can classify it with errors.Is
// instead of inspecting messages.
var (
	// ErrInput marks a missing or empty media file. Fatal: no provider was
	// attempted, so fallback does not apply.
	ErrInput = errors.New("input error")
	// ErrUnavailable marks unmet provider prerequisites (binary, credential,
	// environment variable). Eligible for fallback.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrTimeout marks a provider call that exceeded its allotted time.
	// Eligible for fallback.
	ErrTimeout = errors.New("recognition timeout")
	// ErrRecognition marks any other provider-side failure (auth, quota,
	// service, format). Eligible for fallback.
	ErrRecognition = errors.New("recognition failed")
	// ErrConversion marks malformed or incomplete provider output during
	// normalization. Non-fatal: callers degrade to pass-through or an empty
	// result instead of aborting.
	ErrConversion = errors.New("conversion error")
)

// Wrap tags an error with a taxonomy marker and provider/operation context.
// The message should be human-diagnosable and, for unavailability, name the
// missing prerequisite.
func Wrap(marker error, method Method, operation, message string, err error) error {
	if marker == nil {
		marker = ErrRecognition
	}
	detail := buildDetail(string(method), operation, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FallbackEligible reports whether a failed attempt may be retried with the
// fallback provider. Input errors are not eligible: no provider ran.
func FallbackEligible(err error) bool {
	return err != nil && !errors.Is(err, ErrInput)
}

func buildDetail(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "recognition failure"
	}
	return strings.Join(kept, ": ")
}
