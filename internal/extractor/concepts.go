package extractor

import (
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/scoring"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

// Concepts matches every knowledge-base entry against each segment and
// accumulates de-bounced mention timestamps. The result is ordered by
// complexity, then mention count, both descending.
func (e *Extractor) Concepts(segments []Segment) []TradingConcept {
	found := make(map[string]*TradingConcept)
	lastSeen := make(map[string]int)
	var order []string

	for _, seg := range segments {
		sec := int(max(0, seg.Start))
		ts := textutil.FormatTimestamp(seg.Start)

		for _, c := range e.kb.Concepts {
			variant, confidence, ok := e.matchConcept(seg.Text, c)
			if !ok || !scoring.Accepted(confidence) {
				continue
			}

			tc, seen := found[c.Key]
			if !seen {
				found[c.Key] = &TradingConcept{
					Key:         c.Key,
					Name:        c.Variants[0],
					Description: c.Description,
					MentionedAt: []string{ts},
					Category:    c.Category,
					Complexity:  c.Complexity,
				}
				lastSeen[c.Key] = sec
				order = append(order, c.Key)
				e.logger.Debug("concept detected", "concept", c.Key, "variant", variant, "confidence", confidence, "at", ts)
				continue
			}
			if sec-lastSeen[c.Key] >= DebounceSeconds {
				tc.MentionedAt = append(tc.MentionedAt, ts)
				lastSeen[c.Key] = sec
			}
		}
	}

	out := make([]TradingConcept, 0, len(order))
	for _, key := range order {
		out = append(out, *found[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Complexity != out[j].Complexity {
			return out[i].Complexity > out[j].Complexity
		}
		return len(out[i].MentionedAt) > len(out[j].MentionedAt)
	})
	return out
}

// matchConcept returns the first variant of c present in text together with the
// detection confidence. Entries that declare context patterns need at least one
// of them to match.
func (e *Extractor) matchConcept(text string, c knowledge.Concept) (string, float64, bool) {
	contextHits := 0
	for _, re := range c.ContextPatterns {
		if re.MatchString(text) {
			contextHits++
		}
	}
	if len(c.ContextPatterns) > 0 && contextHits == 0 {
		return "", 0, false
	}

	norm := textutil.Normalize(text)
	lower := strings.ToLower(text)
	for _, v := range c.Variants {
		if !textutil.ContainsTerm(norm, textutil.Normalize(v)) {
			continue
		}
		if _, _, ok := textutil.FindTerm(text, v); !ok {
			continue
		}
		confidence := scoring.ConceptConfidence(scoring.ConceptMatch{
			LongExact:      scoring.IsLongVariant(v) && strings.Contains(lower, strings.ToLower(v)),
			ContextMatches: contextHits,
			CommonWord:     e.kb.IsCommonWord(v),
		})
		return v, confidence, true
	}
	return "", 0, false
}
