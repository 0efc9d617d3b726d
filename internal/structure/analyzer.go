// Package structure measures how a lesson teaches: questions, examples,
// explanations, pacing, and the resulting engagement profile.
package structure

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

// Teaching styles.
const (
	StyleHighlyInteractive = "highly_interactive"
	StyleHandsOnPractical  = "hands_on_practical"
	StyleLecture           = "lecture_style"
	StyleMixed             = "mixed"
	StyleUnknown           = "unknown"
)

const (
	maxEngagement    = 10
	maxCompleteness  = 10
	deepExplanation  = 100
	completenessStep = 2
)

// Item is one segment recognised as a question, example, or explanation.
type Item struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

type Duration struct {
	TotalSeconds                float64 `json:"total_seconds"`
	TotalFormatted              string  `json:"total_formatted"`
	SegmentsCount               int     `json:"segments_count"`
	AvgSegmentDurationSeconds   float64 `json:"avg_segment_duration_seconds"`
	AvgSegmentDurationFormatted string  `json:"avg_segment_duration_formatted"`
	QuestionsPerMinute          float64 `json:"questions_per_minute"`
	ExamplesPerMinute           float64 `json:"examples_per_minute"`
}

type EngagementFactors struct {
	QuestionsPerMin    float64 `json:"questions_per_min"`
	ExamplesPerMin     float64 `json:"examples_per_min"`
	ExplanationsPerMin float64 `json:"explanations_per_min"`
	Segments           int     `json:"segments"`
}

type FlowEntry struct {
	Timestamp string  `json:"timestamp"`
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
}

type LearningIndicators struct {
	QuestionVariety         int     `json:"question_variety"`
	ExampleVariety          int     `json:"example_variety"`
	ExplanationDepth        int     `json:"explanation_depth"`
	InteractionFrequency    float64 `json:"interaction_frequency"`
	EducationalCompleteness int     `json:"educational_completeness"`
}

// Structure is the educational profile of one lesson.
type Structure struct {
	Questions          []Item             `json:"questions_asked"`
	Examples           []Item             `json:"examples_provided"`
	Explanations       []Item             `json:"explanations"`
	Duration           Duration           `json:"duration_analysis"`
	EngagementScore    float64            `json:"engagement_score"`
	TeachingStyle      string             `json:"teaching_style"`
	EngagementFactors  EngagementFactors  `json:"engagement_factors"`
	LessonFlow         []FlowEntry        `json:"lesson_flow"`
	LearningIndicators LearningIndicators `json:"learning_indicators"`
}

type Analyzer struct {
	classifier *Classifier
}

func NewAnalyzer(kb *knowledge.Base) *Analyzer {
	return &Analyzer{classifier: NewClassifier(kb)}
}

// Analyze builds the structure of a lesson in one pass over its segments.
// Each class is counted independently; the flow label follows classification
// priority.
func (a *Analyzer) Analyze(segments []extractor.Segment) Structure {
	s := Structure{
		Questions:     []Item{},
		Examples:      []Item{},
		Explanations:  []Item{},
		LessonFlow:    []FlowEntry{},
		TeachingStyle: StyleUnknown,
	}
	if len(segments) == 0 {
		return s
	}

	buckets := map[string]*[]Item{
		LabelQuestion:    &s.Questions,
		LabelExample:     &s.Examples,
		LabelExplanation: &s.Explanations,
	}

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		ts := textutil.FormatTimestamp(seg.Start)

		label := LabelContent
		for _, r := range a.classifier.Rules() {
			typ, ok := r.Match(text)
			if !ok {
				continue
			}
			*buckets[r.Label] = append(*buckets[r.Label], Item{Text: text, Timestamp: ts, Type: typ})
			if label == LabelContent {
				label = r.Label
			}
		}

		s.LessonFlow = append(s.LessonFlow, FlowEntry{
			Timestamp: ts,
			Type:      label,
			Duration:  max(0, seg.End-seg.Start),
		})
	}

	s.Duration = durationStats(segments, len(s.Questions), len(s.Examples))
	s.EngagementFactors = engagementFactors(segments, len(s.Questions), len(s.Examples), len(s.Explanations))
	s.EngagementScore = EngagementScore(s.EngagementFactors)
	s.TeachingStyle = TeachingStyle(s.EngagementFactors)
	s.LearningIndicators = learningIndicators(s, len(segments))
	return s
}

func maxEnd(segments []extractor.Segment) float64 {
	total := 0.0
	for _, seg := range segments {
		total = max(total, seg.End)
	}
	return total
}

func durationStats(segments []extractor.Segment, questions, examples int) Duration {
	total := maxEnd(segments)
	sum := 0.0
	for _, seg := range segments {
		sum += seg.End - seg.Start
	}
	avg := sum / float64(len(segments))

	d := Duration{
		TotalSeconds:                total,
		TotalFormatted:              textutil.FormatTimestamp(total),
		SegmentsCount:               len(segments),
		AvgSegmentDurationSeconds:   avg,
		AvgSegmentDurationFormatted: textutil.FormatTimestamp(avg),
	}
	if total > 0 {
		d.QuestionsPerMinute = float64(questions) / (total / 60)
		d.ExamplesPerMinute = float64(examples) / (total / 60)
	}
	return d
}

func engagementFactors(segments []extractor.Segment, questions, examples, explanations int) EngagementFactors {
	total := maxEnd(segments)
	if total == 0 {
		total = 1
	}
	minutes := total / 60
	return EngagementFactors{
		QuestionsPerMin:    float64(questions) / minutes,
		ExamplesPerMin:     float64(examples) / minutes,
		ExplanationsPerMin: float64(explanations) / minutes,
		Segments:           len(segments),
	}
}

// EngagementScore weighs interaction rates into a 0-10 score rounded to two decimals.
func EngagementScore(f EngagementFactors) float64 {
	raw := 3.5*f.QuestionsPerMin + 4.0*f.ExamplesPerMin + 2.5*f.ExplanationsPerMin
	score := math.Round(raw*100) / 100
	return math.Max(0, math.Min(maxEngagement, score))
}

// TeachingStyle applies the first matching style rule.
func TeachingStyle(f EngagementFactors) string {
	switch {
	case f.QuestionsPerMin >= 0.6 && f.ExamplesPerMin >= 0.6:
		return StyleHighlyInteractive
	case f.ExamplesPerMin >= 0.8:
		return StyleHandsOnPractical
	case f.ExplanationsPerMin >= 1.0:
		return StyleLecture
	default:
		return StyleMixed
	}
}

func learningIndicators(s Structure, segments int) LearningIndicators {
	deep := 0
	for _, e := range s.Explanations {
		if utf8.RuneCountInString(e.Text) > deepExplanation {
			deep++
		}
	}
	return LearningIndicators{
		QuestionVariety:         distinctTypes(s.Questions),
		ExampleVariety:          distinctTypes(s.Examples),
		ExplanationDepth:        deep,
		InteractionFrequency:    float64(len(s.Questions)+len(s.Examples)) / float64(segments),
		EducationalCompleteness: min(maxCompleteness, len(s.LessonFlow)*completenessStep),
	}
}

func distinctTypes(items []Item) int {
	seen := make(map[string]bool)
	for _, it := range items {
		seen[it.Type] = true
	}
	return len(seen)
}
