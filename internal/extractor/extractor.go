// Package extractor pulls golden points, concepts, and code references out of
// transcript segments using the patterns of a knowledge base.
package extractor

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/lectern/internal/dedup"
	"github.com/MikeSquared-Agency/lectern/internal/knowledge"
	"github.com/MikeSquared-Agency/lectern/internal/scoring"
	"github.com/MikeSquared-Agency/lectern/internal/textutil"
)

const (
	// MinContextChars is the length a context must exceed to become a golden point.
	MinContextChars = 25
	// MinGoldenImportance is the lowest score a golden point may keep.
	MinGoldenImportance = 3
	// MaxGoldenPoints bounds the ranked golden-point list.
	MaxGoldenPoints = 15
	// DebounceSeconds separates two recorded mentions of one concept.
	DebounceSeconds = 10
)

type Extractor struct {
	kb     *knowledge.Base
	scorer *scoring.Scorer
	dedup  *dedup.Detector
	logger *slog.Logger
}

func New(kb *knowledge.Base, logger *slog.Logger) *Extractor {
	return &Extractor{
		kb:     kb,
		scorer: scoring.NewScorer(kb),
		dedup:  dedup.New(kb),
		logger: logger,
	}
}

// GoldenPoints scans every segment against the tiered pattern library and
// returns the ranked, de-duplicated insights.
func (e *Extractor) GoldenPoints(segments []Segment) []GoldenPoint {
	var kept []GoldenPoint
	candidates := 0

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		ts := textutil.FormatTimestamp(seg.Start)

		for _, p := range e.kb.GoldenPatterns {
			for _, loc := range p.Re.FindAllStringIndex(text, -1) {
				candidates++
				ctx := textutil.ExtractContext(text, loc[0], loc[1], textutil.DefaultContextChars)
				if utf8.RuneCountInString(ctx) <= MinContextChars {
					continue
				}
				score := e.scorer.Importance(scoring.Hit{
					Context:  ctx,
					Base:     p.Base,
					Category: p.Category,
					Segment:  text,
				})
				if score < MinGoldenImportance {
					continue
				}
				if e.duplicatesAny(ctx, kept) {
					continue
				}
				kept = append(kept, GoldenPoint{
					Text:       ctx,
					Timestamp:  ts,
					Importance: score,
					Category:   p.Category,
				})
			}
		}
	}

	ranked := Rank(kept, MaxGoldenPoints)
	e.logger.Debug("golden points extracted",
		"candidates", candidates,
		"kept", len(kept),
		"ranked", len(ranked),
	)
	return ranked
}

func (e *Extractor) duplicatesAny(text string, kept []GoldenPoint) bool {
	for _, gp := range kept {
		if e.dedup.IsDuplicate(text, gp.Text, dedup.GoldenPointThreshold) {
			return true
		}
	}
	return false
}
