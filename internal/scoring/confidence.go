package scoring

// Concept confidence parameters.
const (
	BaseConfidence       = 0.7
	LongVariantBoost     = 0.2
	ContextPatternBoost  = 0.1
	CommonWordPenalty    = 0.3
	MinConfidence        = 0.1
	MaxConfidence        = 1.0
	AcceptConfidence     = 0.6
	longVariantMinLength = 9
)

// ConceptMatch describes the evidence behind one concept detection.
type ConceptMatch struct {
	// LongExact is true when a variant longer than eight characters appears
	// verbatim (ignoring case) in the segment.
	LongExact      bool
	ContextMatches int
	CommonWord     bool
}

// ConceptConfidence combines the evidence into a value in [0.1, 1.0].
func ConceptConfidence(m ConceptMatch) float64 {
	c := BaseConfidence
	if m.LongExact {
		c += LongVariantBoost
	}
	c += float64(m.ContextMatches) * ContextPatternBoost
	if m.CommonWord {
		c -= CommonWordPenalty
	}
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// Accepted reports whether a confidence value clears the acceptance bar.
func Accepted(confidence float64) bool {
	return confidence >= AcceptConfidence-1e-9
}

// IsLongVariant reports whether a variant is long enough to earn the exact-match boost.
func IsLongVariant(variant string) bool {
	return len([]rune(variant)) >= longVariantMinLength
}
