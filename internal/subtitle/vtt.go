package subtitle

import (
	"strconv"
	"strings"

	"scribe/internal/timecode"
)

// VTTToSRT converts WebVTT content to SRT. The WEBVTT header and any leading
// metadata lines are dropped up to the first blank line, remaining cues get a
// fresh sequential index, and timing lines have the VTT sub-second period
// rewritten to the SRT comma. Cue text passes through unchanged.
func VTTToSRT(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	counter := 1
	header := true
	for _, line := range lines {
		if header {
			trimmed := strings.TrimSpace(line)
			if trimmed == "WEBVTT" {
				continue
			}
			if trimmed == "" {
				header = false
			}
			continue
		}
		if strings.Contains(line, "-->") {
			out = append(out, strconv.Itoa(counter))
			out = append(out, strings.ReplaceAll(line, ".", ","))
			counter++
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// FormatVTT renders a track as WebVTT: header line, then cues with
// period-separated millisecond timestamps and no index lines.
func FormatVTT(track Track) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, entry := range track {
		b.WriteByte('\n')
		b.WriteString(vttTimestamp(entry.Start))
		b.WriteString(" --> ")
		b.WriteString(vttTimestamp(entry.End))
		b.WriteByte('\n')
		b.WriteString(entry.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func vttTimestamp(seconds float64) string {
	return strings.Replace(timecode.Format(seconds), ",", ".", 1)
}
