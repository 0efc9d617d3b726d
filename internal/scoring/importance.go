// Package scoring turns pattern hits into bounded importance and confidence values.
package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

// Importance bounds.
const (
	MinImportance = 1
	MaxImportance = 5
)

// Hit is a golden-point candidate before scoring.
type Hit struct {
	Context  string
	Base     int
	Category string
	Segment  string
}

// Scorer evaluates hits against one knowledge base.
type Scorer struct {
	kb       *knowledge.Base
	variants []string
}

// NewScorer precomputes normalized variants for term-density checks.
func NewScorer(kb *knowledge.Base) *Scorer {
	vs := kb.Variants()
	norm := make([]string, len(vs))
	for i, v := range vs {
		norm[i] = textutil.Normalize(v)
	}
	return &Scorer{kb: kb, variants: norm}
}

// Importance sums every adjustment once and clamps the result to [1,5].
func (s *Scorer) Importance(h Hit) int {
	score := h.Base
	score += LengthBonus(h.Context)
	score += s.TermDensityBonus(h.Context)
	score += s.EmphasisBonus(h.Context)
	if s.Hedged(h.Context) {
		score = max(MinImportance, score-1)
	}
	score += s.InterrogativeBonus(h.Context)
	score += PositionBonus(h.Context, h.Segment)
	return clamp(score)
}

// LengthBonus rewards contexts longer than 100 characters.
func LengthBonus(context string) int {
	if utf8.RuneCountInString(context) > 100 {
		return 1
	}
	return 0
}

// TermDensityBonus rewards contexts naming at least two distinct variants.
func (s *Scorer) TermDensityBonus(context string) int {
	norm := textutil.Normalize(context)
	found := 0
	for _, v := range s.variants {
		if textutil.ContainsTerm(norm, v) {
			found++
			if found >= 2 {
				return 1
			}
		}
	}
	return 0
}

// EmphasisBonus counts distinct emphasis signals, capped at two.
func (s *Scorer) EmphasisBonus(context string) int {
	n := 0
	for _, re := range s.kb.Emphasis {
		if re.MatchString(context) {
			n++
		}
	}
	return min(n, 2)
}

// Hedged reports a softening or negating phrase.
func (s *Scorer) Hedged(context string) bool {
	return s.kb.Hedging.MatchString(context)
}

// InterrogativeBonus rewards contexts that pose or answer a question.
func (s *Scorer) InterrogativeBonus(context string) int {
	if s.kb.Interrogative.MatchString(context) {
		return 1
	}
	return 0
}

// PositionBonus rewards contexts whose first occurrence sits in the middle 60%
// of the segment.
func PositionBonus(context, segment string) int {
	total := utf8.RuneCountInString(segment)
	if total == 0 {
		return 0
	}
	idx := strings.Index(segment, context)
	if idx < 0 {
		return 0
	}
	pos := float64(utf8.RuneCountInString(segment[:idx])) / float64(total)
	if pos >= 0.2 && pos <= 0.8 {
		return 1
	}
	return 0
}

func clamp(score int) int {
	if score < MinImportance {
		return MinImportance
	}
	if score > MaxImportance {
		return MaxImportance
	}
	return score
}
