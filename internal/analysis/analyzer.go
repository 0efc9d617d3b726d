// Package analysis runs the full lesson analysis over one transcript.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/lectern/internal/extractor"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/research"
	"github.com/MikeSquared-Agency/lectern/internal/structure"
)

// ErrMalformedInput is returned when the transcript text or its segments are missing.
var ErrMalformedInput = errors.New("malformed transcript input")

// Lesson types reported in the summary.
const (
	LessonPractical   = "practical"
	LessonTheoretical = "theoretical"
)

// HighImportance is the importance counted as high in summaries.
const HighImportance = 4

var practiceMarkers = []string{"practice", "práctica"}

// Report is the normalized result of one analysis.
type Report struct {
	GoldenPoints             []extractor.GoldenPoint    `json:"golden_points"`
	TradingConcepts          []extractor.TradingConcept `json:"trading_concepts"`
	CodeReferences           []extractor.CodeReference  `json:"code_references"`
	EducationalStructure     structure.Structure        `json:"educational_structure"`
	AcademicResearchTriggers []string                   `json:"academic_research_triggers"`
	ResearchTopics           []research.Need            `json:"research_topics"`
	Summary                  Summary                    `json:"summary"`
}

type Summary struct {
	TotalGoldenPoints      int                          `json:"total_golden_points"`
	HighImportancePoints   int                          `json:"high_importance_points"`
	TotalConcepts          int                          `json:"total_concepts_identified"`
	ConceptsByCategory     map[string]int               `json:"concepts_by_category"`
	CodeReferencesFound    int                          `json:"code_references_found"`
	AcademicResearchNeeded int                          `json:"academic_research_needed"`
	AdvancedResearchTopics int                          `json:"advanced_research_topics"`
	HighPriorityResearch   int                          `json:"high_priority_research"`
	LessonType             string                       `json:"lesson_type"`
	ComplexityScore        float64                      `json:"complexity_score"`
	EngagementScore        float64                      `json:"engagement_score"`
	TeachingStyle          string                       `json:"teaching_style"`
	LearningEffectiveness  structure.LearningIndicators `json:"learning_effectiveness"`
}

// AnalyzeOpts carries optional lesson metadata.
type AnalyzeOpts struct {
	LessonName string
}

type Analyzer struct {
	extractor *extractor.Extractor
	structure *structure.Analyzer
	research  *research.Detector
	validate  *validator.Validate
	logger    *slog.Logger
}

func New(kb *knowledge.Base, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		extractor: extractor.New(kb, logger),
		structure: structure.NewAnalyzer(kb),
		research:  research.NewDetector(kb),
		validate:  validator.New(),
		logger:    logger,
	}
}

// Analyze runs every extractor over the transcript. The result depends only on
// the input and the knowledge base.
func (a *Analyzer) Analyze(text string, segments []extractor.Segment, opts ...AnalyzeOpts) (*Report, error) {
	var opt AnalyzeOpts
	if len(opts) > 0 {
		opt = opts[0]
	}

	in := extractor.Transcript{Text: strings.TrimSpace(text), Segments: segments}
	if err := a.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	points := a.extractor.GoldenPoints(segments)
	concepts := a.extractor.Concepts(segments)
	refs := a.extractor.CodeReferences(segments)
	edu := a.structure.Analyze(segments)
	triggers := a.research.Triggers(concepts, points, text)
	needs := a.research.Needs(concepts)

	r := &Report{
		GoldenPoints:             points,
		TradingConcepts:          concepts,
		CodeReferences:           refs,
		EducationalStructure:     edu,
		AcademicResearchTriggers: research.Merge(triggers, needs),
		ResearchTopics:           needs,
	}
	r.Summary = summarize(r, len(triggers), opt.LessonName)

	a.logger.Info("analysis complete",
		"lesson", opt.LessonName,
		"segments", len(segments),
		"golden_points", len(points),
		"concepts", len(concepts),
		"code_references", len(refs),
		"research_topics", len(needs),
	)
	return r, nil
}

func summarize(r *Report, triggers int, lessonName string) Summary {
	s := Summary{
		TotalGoldenPoints:      len(r.GoldenPoints),
		TotalConcepts:          len(r.TradingConcepts),
		ConceptsByCategory:     make(map[string]int),
		CodeReferencesFound:    len(r.CodeReferences),
		AcademicResearchNeeded: triggers,
		AdvancedResearchTopics: len(r.ResearchTopics),
		LessonType:             LessonType(lessonName),
		EngagementScore:        r.EducationalStructure.EngagementScore,
		TeachingStyle:          r.EducationalStructure.TeachingStyle,
		LearningEffectiveness:  r.EducationalStructure.LearningIndicators,
	}
	for _, gp := range r.GoldenPoints {
		if gp.Importance >= HighImportance {
			s.HighImportancePoints++
		}
	}
	complexity := 0
	for _, c := range r.TradingConcepts {
		s.ConceptsByCategory[c.Category]++
		complexity += c.Complexity
	}
	if len(r.TradingConcepts) > 0 {
		s.ComplexityScore = float64(complexity) / float64(len(r.TradingConcepts))
	}
	for _, n := range r.ResearchTopics {
		if n.Priority >= research.HighPriority {
			s.HighPriorityResearch++
		}
	}
	return s
}

// LessonType classifies a lesson as practical when its name says so.
func LessonType(name string) string {
	lower := strings.ToLower(name)
	for _, m := range practiceMarkers {
		if strings.Contains(lower, m) {
			return LessonPractical
		}
	}
	return LessonTheoretical
}
