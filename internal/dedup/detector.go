// Package dedup decides whether two extracted snippets say the same thing.
package dedup

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

// Thresholds used by the extractors.
const (
	GoldenPointThreshold   = 0.85
	CodeReferenceThreshold = 0.7
	KeyWordThreshold       = 0.7
)

// Detector compares snippets by character similarity and key-word overlap.
type Detector struct {
	kb *knowledge.Base
}

// New creates a detector that draws its stop words from kb.
func New(kb *knowledge.Base) *Detector {
	return &Detector{kb: kb}
}

// IsDuplicate reports whether a and b are near-duplicates: raw similarity,
// similarity after normalization, or key-word Jaccard overlap.
func (d *Detector) IsDuplicate(a, b string, threshold float64) bool {
	if Ratio(a, b) >= threshold {
		return true
	}
	if Ratio(textutil.Normalize(a), textutil.Normalize(b)) >= threshold {
		return true
	}
	return d.KeyWordOverlap(a, b) >= KeyWordThreshold
}

// Ratio returns the Ratcliff/Obershelp similarity of a and b in [0,1],
// computed over runes.
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// KeyWordOverlap returns the Jaccard index of the key-word sets of a and b,
// or 0 when either set is empty.
func (d *Detector) KeyWordOverlap(a, b string) float64 {
	wa := d.keyWordSet(a)
	wb := d.keyWordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func (d *Detector) keyWordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range textutil.KeyWords(s, d.kb.IsStopWord) {
		set[w] = true
	}
	return set
}
