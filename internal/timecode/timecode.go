// Package timecode parses and formats subtitle timestamps.
//
// SRT uses a comma before the millisecond field, VTT uses a period; Parse
// accepts both. Formatting always produces the SRT form.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse converts an HH:MM:SS,mmm or HH:MM:SS.mmm timestamp to seconds.
// Malformed input yields 0 rather than an error: provider output is
// occasionally truncated mid-line and a zero timestamp keeps the rest of the
// track usable.
func Parse(value string) float64 {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, errH := strconv.Atoi(parts[0])
	minutes, errM := strconv.Atoi(parts[1])
	seconds, errS := strconv.ParseFloat(parts[2], 64)
	if errH != nil || errM != nil || errS != nil {
		return 0
	}
	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0
	}
	return float64(hours*3600+minutes*60) + seconds
}

// Format renders seconds as an SRT timestamp (HH:MM:SS,mmm). The whole-second
// part is truncated and the millisecond field comes from the fractional
// remainder, so Parse(Format(x)) == x for any x >= 0 representable at
// millisecond precision.
func Format(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	whole := int(seconds)
	millis := int(math.Round((seconds - float64(whole)) * 1000))
	if millis >= 1000 {
		whole++
		millis -= 1000
	}
	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
