//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
	"github.com/MikeSquared-Agency/lectern/internal/extractor"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_SaveAndGetAnalysis(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	hash := "integration-" + uuid.New().String()

	report := &analysis.Report{
		GoldenPoints: []extractor.GoldenPoint{
			{Text: "Es fundamental que siempre uses un stop loss.", Timestamp: "00:00:40", Importance: 5, Category: "critical_insight"},
		},
		TradingConcepts: []extractor.TradingConcept{
			{Key: "stop_loss", Name: "stop loss", Category: "risk_management", Complexity: 3, MentionedAt: []string{"00:00:40"}},
		},
		CodeReferences:           []extractor.CodeReference{},
		AcademicResearchTriggers: []string{},
		Summary: analysis.Summary{
			TotalGoldenPoints:  1,
			TotalConcepts:      1,
			ConceptsByCategory: map[string]int{"risk_management": 1},
			LessonType:         analysis.LessonTheoretical,
			ComplexityScore:    3,
			TeachingStyle:      "lecture_style",
		},
	}

	id, err := s.SaveAnalysis(ctx, LessonRef{LessonID: "l-1", LessonName: "Clase 1", ContentHash: hash}, report)
	if err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected non-nil analysis ID")
	}

	row, err := s.GetAnalysis(ctx, id)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if row.LessonName != "Clase 1" || row.ContentHash != hash {
		t.Errorf("unexpected row %+v", row)
	}
	if len(row.Report.GoldenPoints) != 1 || row.Report.GoldenPoints[0].Importance != 5 {
		t.Errorf("report did not round-trip: %+v", row.Report.GoldenPoints)
	}
	if row.Report.Summary.ConceptsByCategory["risk_management"] != 1 {
		t.Errorf("summary did not round-trip: %+v", row.Report.Summary)
	}

	latest, err := s.LatestByContentHash(ctx, hash)
	if err != nil {
		t.Fatalf("LatestByContentHash failed: %v", err)
	}
	if latest.ID != id {
		t.Errorf("expected latest %s, got %s", id, latest.ID)
	}

	counts, err := s.ConceptCounts(ctx)
	if err != nil {
		t.Fatalf("ConceptCounts failed: %v", err)
	}
	if counts["stop_loss"] < 1 {
		t.Errorf("expected stop_loss counted, got %v", counts)
	}
}

func TestIntegration_NotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAnalysis(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.LatestByContentHash(ctx, "missing-"+uuid.New().String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
