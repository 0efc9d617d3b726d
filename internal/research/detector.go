// Package research flags lesson content that would benefit from academic backing.
package research

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

const (
	// MinTriggerComplexity marks concepts that always need research backing.
	MinTriggerComplexity = 4
	// MinTriggerImportance marks golden points worth checking for academic language.
	MinTriggerImportance = 4
	// MaxNeeds bounds the prioritised research list.
	MaxNeeds = 8
	// HighPriority is the priority counted as high in summaries.
	HighPriority = 4

	excerptRunes = 50
)

// Need is a prioritised research topic.
type Need struct {
	Topic             string `json:"topic"`
	Category          string `json:"category"`
	Priority          int    `json:"priority"`
	Description       string `json:"description"`
	Context           string `json:"context"`
	SuggestedResearch string `json:"suggested_research"`
}

// Label renders the need as it appears in the trigger list.
func (n Need) Label() string {
	return fmt.Sprintf("%s (%s)", n.Topic, n.Category)
}

type Detector struct {
	kb     *knowledge.Base
	mapper *Mapper
}

func NewDetector(kb *knowledge.Base) *Detector {
	return &Detector{kb: kb, mapper: NewMapper(kb)}
}

// Triggers collects complex or academic concepts, academic keywords and named
// theories present anywhere in the transcript, and excerpts of important golden
// points that use academic language. The result is sorted and unique.
func (d *Detector) Triggers(concepts []extractor.TradingConcept, points []extractor.GoldenPoint, transcript string) []string {
	set := make(map[string]bool)

	for _, c := range concepts {
		if c.Complexity >= MinTriggerComplexity || c.Category == knowledge.CategoryAcademic {
			set[c.Name] = true
		}
	}

	lower := strings.ToLower(transcript)
	if lower != "" {
		for _, kw := range d.kb.AcademicKeywords {
			if strings.Contains(lower, kw) {
				set[kw] = true
			}
		}
	}

	for _, p := range points {
		if p.Importance < MinTriggerImportance {
			continue
		}
		text := strings.ToLower(p.Text)
		for _, kw := range d.kb.AcademicKeywords {
			if strings.Contains(text, kw) {
				set[strings.TrimSpace(textutil.Truncate(p.Text, excerptRunes))+"..."] = true
				break
			}
		}
	}

	if lower != "" {
		for _, topic := range d.kb.AcademicTopics {
			if strings.Contains(lower, topic) {
				set[topic] = true
			}
		}
	}

	return sortedKeys(set)
}

// Needs buckets complex concepts into research categories and returns the
// highest-priority ones.
func (d *Detector) Needs(concepts []extractor.TradingConcept) []Need {
	needs := []Need{}
	for _, c := range concepts {
		if c.Complexity < MinTriggerComplexity {
			continue
		}
		a := d.mapper.Map(c)
		needs = append(needs, Need{
			Topic:             c.Name,
			Category:          a.Category,
			Priority:          a.Priority,
			Description:       a.Description,
			Context:           fmt.Sprintf("Mencionado %d veces", len(c.MentionedAt)),
			SuggestedResearch: fmt.Sprintf("Análisis empírico de %s en mercados financieros", c.Name),
		})
	}
	sort.SliceStable(needs, func(i, j int) bool {
		return needs[i].Priority > needs[j].Priority
	})
	if len(needs) > MaxNeeds {
		needs = needs[:MaxNeeds]
	}
	return needs
}

// Merge combines trigger strings with need labels into one sorted, unique list.
func Merge(triggers []string, needs []Need) []string {
	set := make(map[string]bool, len(triggers)+len(needs))
	for _, t := range triggers {
		set[t] = true
	}
	for _, n := range needs {
		set[n.Label()] = true
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
