package textutil

import (
	"strings"
	"unicode/utf8"
)

// DefaultContextChars caps the length of an extracted context window.
const DefaultContextChars = 220

func isLeftDelim(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '¿', '¡':
		return true
	}
	return false
}

// Opening ¿ and ¡ never close a span.
func isRightDelim(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}

// ExtractContext returns the sentence surrounding the match text[start:end]
// (byte offsets), trimmed and capped at maxChars runes. When the sentence is
// longer than maxChars the window is centred on the match and clipped to the
// sentence boundaries.
func ExtractContext(text string, start, end, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}
	start = clampInt(start, 0, len(text))
	end = clampInt(end, start, len(text))

	rs := []rune(text)
	si := utf8.RuneCountInString(text[:start])
	ei := utf8.RuneCountInString(text[:end])

	left := 0
	for k := si - 1; k >= 0; k-- {
		if isLeftDelim(rs[k]) {
			left = k + 1
			break
		}
	}
	right := len(rs)
	for k := ei; k < len(rs); k++ {
		if isRightDelim(rs[k]) {
			right = k + 1
			break
		}
	}

	span := strings.TrimSpace(string(rs[left:right]))
	if utf8.RuneCountInString(span) <= maxChars {
		return span
	}

	mid := (si + ei) / 2
	lo := max(left, mid-maxChars/2)
	hi := min(right, lo+maxChars)
	lo = max(left, hi-maxChars)
	return strings.TrimSpace(string(rs[lo:hi]))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
