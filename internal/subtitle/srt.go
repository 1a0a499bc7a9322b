package subtitle

import (
	"strconv"
	"strings"

	"scribe/internal/timecode"
)

// ParseSRT scans SRT content into a Track. The parser is deliberately
// tolerant: a cue is any line of digits followed by a line containing "-->",
// and lines outside that shape are skipped. Blank lines terminate a cue's
// text block.
func ParseSRT(content string) Track {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	var track Track

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !isIndexLine(line) || i+1 >= len(lines) || !strings.Contains(lines[i+1], "-->") {
			i++
			continue
		}
		index, _ := strconv.Atoi(line)
		start, end, ok := splitTiming(lines[i+1])
		i += 2
		var text []string
		for i < len(lines) {
			candidate := strings.TrimSpace(lines[i])
			if candidate == "" {
				i++
				break
			}
			if isIndexLine(candidate) && i+1 < len(lines) && strings.Contains(lines[i+1], "-->") {
				break
			}
			text = append(text, candidate)
			i++
		}
		if !ok {
			continue
		}
		track = append(track, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(text, "\n"),
		})
	}
	return track
}

// FormatSRT renders a track as SRT: index line, timing line, text, blank line
// between cues. Entries are written with their stored indices; call Renumber
// first when the track was assembled from multiple sources.
func FormatSRT(track Track) string {
	blocks := make([]string, 0, len(track))
	for _, entry := range track {
		var b strings.Builder
		b.WriteString(strconv.Itoa(entry.Index))
		b.WriteByte('\n')
		b.WriteString(timecode.Format(entry.Start))
		b.WriteString(" --> ")
		b.WriteString(timecode.Format(entry.End))
		b.WriteByte('\n')
		b.WriteString(entry.Text)
		b.WriteByte('\n')
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

func isIndexLine(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitTiming parses "HH:MM:SS,mmm --> HH:MM:SS,mmm". The individual
// timestamps are parsed leniently, but a line without both sides of the arrow
// is rejected.
func splitTiming(line string) (start, end float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(line), "-->")
	if len(parts) != 2 {
		return 0, 0, false
	}
	return timecode.Parse(parts[0]), timecode.Parse(parts[1]), true
}
