package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

const (
	// MaxClips bounds the clip plan.
	MaxClips = 10
	// ClipLeadSeconds starts each clip before its golden point.
	ClipLeadSeconds = 5
	// ClipSeconds is the planned length of each clip.
	ClipSeconds = 15

	clipTextRunes = 100
)

type conceptEntry struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Complexity  int      `json:"complexity"`
	MentionedAt []string `json:"mentioned_at"`
	Description string   `json:"description"`
}

type conceptsDoc struct {
	TradingConcepts  []conceptEntry   `json:"trading_concepts"`
	AcademicTriggers []string         `json:"academic_triggers"`
	Summary          analysis.Summary `json:"summary"`
}

// ConceptsJSON renders the concept list, research triggers, and summary as
// indented JSON.
func ConceptsJSON(r *analysis.Report) ([]byte, error) {
	doc := conceptsDoc{
		TradingConcepts:  make([]conceptEntry, 0, len(r.TradingConcepts)),
		AcademicTriggers: r.AcademicResearchTriggers,
		Summary:          r.Summary,
	}
	if doc.AcademicTriggers == nil {
		doc.AcademicTriggers = []string{}
	}
	for _, c := range r.TradingConcepts {
		doc.TradingConcepts = append(doc.TradingConcepts, conceptEntry{
			Name:        c.Name,
			Category:    c.Category,
			Complexity:  c.Complexity,
			MentionedAt: c.MentionedAt,
			Description: c.Description,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode concepts: %w", err)
	}
	return buf.Bytes(), nil
}

// Clip is one planned video excerpt around a golden point.
type Clip struct {
	Number     int    `json:"number"`
	Timestamp  string `json:"timestamp"`
	Seconds    int    `json:"seconds"`
	ClipStart  string `json:"clip_start"`
	Duration   int    `json:"duration"`
	Importance int    `json:"importance"`
	Category   string `json:"category"`
	Text       string `json:"text"`
}

// ClipPlan picks the most important golden points, earliest first among equals.
func ClipPlan(points []extractor.GoldenPoint) []Clip {
	sorted := make([]extractor.GoldenPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Importance != sorted[j].Importance {
			return sorted[i].Importance > sorted[j].Importance
		}
		return textutil.EnsureHHMMSS(sorted[i].Timestamp) < textutil.EnsureHHMMSS(sorted[j].Timestamp)
	})
	if len(sorted) > MaxClips {
		sorted = sorted[:MaxClips]
	}

	clips := make([]Clip, 0, len(sorted))
	for i, gp := range sorted {
		ts := textutil.EnsureHHMMSS(gp.Timestamp)
		sec := textutil.ParseTimestamp(ts)
		category := gp.Category
		if category == "" {
			category = "general"
		}
		text := gp.Text
		if truncated := textutil.Truncate(text, clipTextRunes); truncated != text {
			text = truncated + "..."
		}
		clips = append(clips, Clip{
			Number:     i + 1,
			Timestamp:  ts,
			Seconds:    sec,
			ClipStart:  textutil.FormatTimestamp(float64(max(0, sec-ClipLeadSeconds))),
			Duration:   ClipSeconds,
			Importance: gp.Importance,
			Category:   category,
			Text:       text,
		})
	}
	return clips
}

// ClipPlanJSON renders ClipPlan as indented JSON.
func ClipPlanJSON(points []extractor.GoldenPoint) ([]byte, error) {
	data, err := json.MarshalIndent(ClipPlan(points), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode clip plan: %w", err)
	}
	return data, nil
}
