// Package textutil holds the accent-insensitive matching and sentence-window
// helpers shared by every analysis component.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s and strips combining marks after canonical decomposition.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// IsWordRune reports whether r counts as a word character for boundary checks.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// HasTerm reports whether term occurs in text as a whole word (or phrase),
// ignoring case and diacritics.
func HasTerm(text, term string) bool {
	return ContainsTerm(Normalize(text), Normalize(term))
}

// FindTerm locates the first whole-word, case-insensitive occurrence of term in
// text and returns its byte offsets. Diacritics must match.
func FindTerm(text, term string) (start, end int, ok bool) {
	if term == "" {
		return 0, 0, false
	}
	lower := []rune(strings.ToLower(text))
	needle := []rune(strings.ToLower(term))
	src := []rune(text)
	if len(lower) != len(src) {
		// Case mapping changed the rune count; fall back to an exact-case search.
		lower = src
		needle = []rune(term)
	}
	for i := 0; i+len(needle) <= len(lower); i++ {
		if !equalRunes(lower[i:i+len(needle)], needle) {
			continue
		}
		if i > 0 && IsWordRune(lower[i-1]) {
			continue
		}
		j := i + len(needle)
		if j < len(lower) && IsWordRune(lower[j]) {
			continue
		}
		start = len(string(src[:i]))
		end = start + len(string(src[i:j]))
		return start, end, true
	}
	return 0, 0, false
}

// findBounded searches for needle in haystack with word boundaries on both sides.
func findBounded(haystack, needle string) (int, int, bool) {
	from := 0
	for from < len(haystack) {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return 0, 0, false
		}
		i := from + idx
		j := i + len(needle)
		if boundaryBefore(haystack, i) && boundaryAfter(haystack, j) {
			return i, j, true
		}
		_, size := utf8.DecodeRuneInString(haystack[i:])
		from = i + size
	}
	return 0, 0, false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !IsWordRune(r)
}

func boundaryAfter(s string, j int) bool {
	if j >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[j:])
	return !IsWordRune(r)
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// KeyWords returns the lower-cased word tokens of at least three characters,
// skipping any for which stop reports true.
func KeyWords(text string, stop func(string) bool) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !IsWordRune(r) }) {
		if len([]rune(tok)) < 3 {
			continue
		}
		if stop != nil && stop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

// ContainsTerm is HasTerm for inputs that are already normalized.
func ContainsTerm(normText, normTerm string) bool {
	if normTerm == "" {
		return false
	}
	_, _, ok := findBounded(normText, normTerm)
	return ok
}
