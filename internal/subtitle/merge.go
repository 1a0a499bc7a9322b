package subtitle

import (
	"strconv"
	"strings"

	"scribe/internal/timecode"
)

// ChunkResult pairs one audio chunk's subtitle text with the chunk's start
// offset within the full track.
type ChunkResult struct {
	Content string
	Offset  float64
}

// MergeChunks stitches per-chunk SRT results into one continuous track. Each
// chunk's timing lines are shifted by the chunk offset and cue indices are
// renumbered continuously across chunk boundaries. Lines that are not part of
// a recognizable numbered cue pass through unchanged and do not consume an
// index. Chunks are joined in input order with a blank line between blocks.
func MergeChunks(chunks []ChunkResult) string {
	parts := make([]string, 0, len(chunks))
	next := 1
	for _, chunk := range chunks {
		var adjusted string
		adjusted, next = shiftAndRenumber(chunk.Content, chunk.Offset, next)
		if adjusted == "" {
			continue
		}
		parts = append(parts, adjusted)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// shiftAndRenumber rewrites one chunk's SRT text: cue indices start at next,
// timestamps gain offset seconds. Returns the rewritten text and the index
// following the chunk's last cue.
func shiftAndRenumber(content string, offset float64, next int) (string, int) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	var out []string

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if !isIndexLine(line) {
			// Header or metadata line; keep verbatim.
			out = append(out, line)
			i++
			continue
		}

		out = append(out, strconv.Itoa(next))
		next++
		i++

		if i < len(lines) {
			if strings.Contains(lines[i], "-->") {
				out = append(out, shiftTimingLine(lines[i], offset))
			} else {
				out = append(out, lines[i])
			}
			i++
		}

		for i < len(lines) {
			text := strings.TrimSpace(lines[i])
			if text == "" {
				out = append(out, "")
				i++
				break
			}
			if isIndexLine(text) && i+1 < len(lines) && strings.Contains(lines[i+1], "-->") {
				break
			}
			out = append(out, lines[i])
			i++
		}
	}
	return strings.Join(out, "\n"), next
}

// shiftTimingLine adds offset to both sides of an SRT timing line. A line
// that does not split cleanly around the arrow is kept as-is.
func shiftTimingLine(line string, offset float64) string {
	parts := strings.Split(strings.TrimSpace(line), " --> ")
	if len(parts) != 2 {
		return strings.TrimSpace(line)
	}
	start := timecode.Parse(parts[0]) + offset
	end := timecode.Parse(parts[1]) + offset
	return timecode.Format(start) + " --> " + timecode.Format(end)
}
