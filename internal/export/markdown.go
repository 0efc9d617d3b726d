// Package export renders analysis reports as lesson notes, concept data, and clip plans.
package export

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
)

const (
	// MaxGoldenPoints bounds the golden-points document.
	MaxGoldenPoints = 10
	// MaxConceptsPerCategory bounds each category section of the notes.
	MaxConceptsPerCategory = 5
	// MaxMentions bounds the timestamps listed per concept.
	MaxMentions = 3
)

var titler = cases.Title(language.Spanish)

// Title renders an identifier such as "critical_insight" as "Critical Insight".
func Title(id string) string {
	return titler.String(strings.ReplaceAll(id, "_", " "))
}

// GoldenPointsMarkdown renders the top golden points with their importance as stars.
func GoldenPointsMarkdown(r *analysis.Report, lessonName string) []byte {
	var b strings.Builder
	b.WriteString("# 🌟 Golden Points\n\n")
	fmt.Fprintf(&b, "*Generated from lesson: %s*\n\n", lessonName)

	for i, gp := range r.GoldenPoints {
		if i == MaxGoldenPoints {
			break
		}
		fmt.Fprintf(&b, "## %d. %s %s\n", i+1, Title(gp.Category), strings.Repeat("⭐", gp.Importance))
		fmt.Fprintf(&b, "**Timestamp**: %s\n\n", gp.Timestamp)
		b.WriteString(gp.Text)
		b.WriteString("\n\n---\n\n")
	}
	return []byte(b.String())
}

// NotesMarkdown renders the lesson summary and the most mentioned concepts per category.
func NotesMarkdown(r *analysis.Report, lessonName string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# 📝 Lesson Notes: %s\n\n", lessonName)
	b.WriteString("## 📊 Summary\n\n")
	fmt.Fprintf(&b, "- **Golden Points**: %d\n", len(r.GoldenPoints))
	fmt.Fprintf(&b, "- **Trading Concepts**: %d\n", len(r.TradingConcepts))
	fmt.Fprintf(&b, "- **Code References**: %d\n", len(r.CodeReferences))
	fmt.Fprintf(&b, "- **Academic Research Needed**: %d\n\n", len(r.AcademicResearchTriggers))

	byCategory := make(map[string][]extractor.TradingConcept)
	var order []string
	for _, c := range r.TradingConcepts {
		if _, ok := byCategory[c.Category]; !ok {
			order = append(order, c.Category)
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	for _, cat := range order {
		concepts := byCategory[cat]
		sort.SliceStable(concepts, func(i, j int) bool {
			return len(concepts[i].MentionedAt) > len(concepts[j].MentionedAt)
		})
		fmt.Fprintf(&b, "### %s\n", Title(cat))
		for i, c := range concepts {
			if i == MaxConceptsPerCategory {
				break
			}
			times := c.MentionedAt
			if len(times) > MaxMentions {
				times = times[:MaxMentions]
			}
			fmt.Fprintf(&b, "- **%s** (%s)\n", c.Name, strings.Join(times, ", "))
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
