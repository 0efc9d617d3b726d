package research

import (
	"strings"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

// CategoryGeneral is assigned when no research category claims a concept.
const CategoryGeneral = "general"

const generalDescription = "Requiere investigación académica"

// Mapper assigns concepts to research categories.
type Mapper struct {
	kb *knowledge.Base
}

func NewMapper(kb *knowledge.Base) *Mapper {
	return &Mapper{kb: kb}
}

// Assignment is the research category chosen for a concept.
type Assignment struct {
	Category    string
	Priority    int
	Description string
}

// Map returns the first research category whose declared concepts share a
// variant with c or whose keywords appear in its description. Unclaimed
// concepts fall back to the general category at their own complexity.
func (m *Mapper) Map(c extractor.TradingConcept) Assignment {
	for _, rc := range m.kb.ResearchCategories {
		if m.matches(c, rc) {
			return Assignment{Category: rc.Name, Priority: rc.Priority, Description: rc.Description}
		}
	}
	return Assignment{Category: CategoryGeneral, Priority: c.Complexity, Description: generalDescription}
}

func (m *Mapper) matches(c extractor.TradingConcept, rc knowledge.ResearchCategory) bool {
	own := normalizedVariants(m.kb, c.Key, c.Name)
	for _, key := range rc.Concepts {
		for v := range normalizedVariants(m.kb, key, key) {
			if own[v] {
				return true
			}
		}
	}
	desc := strings.ToLower(c.Description)
	for _, kw := range rc.Keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

func normalizedVariants(kb *knowledge.Base, key, fallback string) map[string]bool {
	out := make(map[string]bool)
	if entry, ok := kb.Concept(key); ok {
		for _, v := range entry.Variants {
			out[textutil.Normalize(v)] = true
		}
	}
	out[textutil.Normalize(fallback)] = true
	return out
}
