package transcript

import (
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
)

// ParseSRT parses SRT or WebVTT cues into segments. The lines of one cue are
// joined into a single segment.
//
//	1
//	00:00:00,000 --> 00:00:01,830
//	Bienvenidos a
//	la clase de hoy.
func ParseSRT(text string) *Document {
	doc := &Document{Segments: []extractor.Segment{}, Format: FormatSRT}

	var cur *extractor.Segment
	var lines []string
	flush := func() {
		if cur != nil && len(lines) > 0 {
			cur.Text = strings.Join(lines, " ")
			doc.Segments = append(doc.Segments, *cur)
		}
		cur = nil
		lines = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}
		if strings.Contains(line, "-->") {
			flush()
			parts := strings.SplitN(line, "-->", 2)
			cur = &extractor.Segment{
				Start: parseCueTime(parts[0]),
				End:   parseCueTime(parts[1]),
			}
			continue
		}
		// Sequence numbers and the WEBVTT header precede any cue timing.
		if cur == nil {
			continue
		}
		lines = append(lines, line)
	}
	flush()

	doc.Text = joinSegments(doc.Segments)
	return doc
}

// parseCueTime converts HH:MM:SS,mmm (or MM:SS.mmm) into seconds. Cue settings
// after the timestamp are ignored; malformed input yields 0.
func parseCueTime(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	parts := strings.Split(strings.Replace(fields[0], ",", ".", 1), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0.0
	for i, p := range parts {
		var v float64
		var err error
		if i == len(parts)-1 {
			v, err = strconv.ParseFloat(p, 64)
		} else {
			var n int
			n, err = strconv.Atoi(p)
			v = float64(n)
		}
		if err != nil {
			return 0
		}
		total = total*60 + v
	}
	return total
}
