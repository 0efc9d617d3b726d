package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/lectern/internal/analysis"
)

// LessonRef identifies the lesson an analysis belongs to.
type LessonRef struct {
	LessonID    string
	LessonName  string
	ContentHash string
}

// AnalysisRow is a stored analysis with its decoded report.
type AnalysisRow struct {
	ID          uuid.UUID        `json:"id"`
	LessonID    string           `json:"lesson_id"`
	LessonName  string           `json:"lesson_name"`
	ContentHash string           `json:"content_hash"`
	Report      *analysis.Report `json:"report"`
	CreatedAt   time.Time        `json:"created_at"`
}

// SaveAnalysis writes a report and its golden points and concepts in one transaction.
func (s *Store) SaveAnalysis(ctx context.Context, ref LessonRef, r *analysis.Report) (uuid.UUID, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO lesson_analyses (id, lesson_id, lesson_name, content_hash, lesson_type, complexity_score, engagement_score, teaching_style, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`,
		id, ref.LessonID, ref.LessonName, ref.ContentHash, r.Summary.LessonType,
		r.Summary.ComplexityScore, r.Summary.EngagementScore, r.Summary.TeachingStyle, payload,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert analysis: %w", err)
	}

	for i, gp := range r.GoldenPoints {
		_, err = tx.Exec(ctx, `
			INSERT INTO analysis_golden_points (id, analysis_id, position, text, ts, importance, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), id, i, gp.Text, gp.Timestamp, gp.Importance, gp.Category,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert golden point: %w", err)
		}
	}

	for _, c := range r.TradingConcepts {
		_, err = tx.Exec(ctx, `
			INSERT INTO analysis_concepts (id, analysis_id, concept_key, name, category, complexity, mentioned_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), id, c.Key, c.Name, c.Category, c.Complexity, c.MentionedAt,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert concept: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

// GetAnalysis fetches a stored analysis by ID.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*AnalysisRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, lesson_id, lesson_name, content_hash, report, created_at
		FROM lesson_analyses WHERE id = $1`, id)
	return scanAnalysis(row)
}

// LatestByContentHash returns the most recent analysis of an identical transcript.
func (s *Store) LatestByContentHash(ctx context.Context, hash string) (*AnalysisRow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, lesson_id, lesson_name, content_hash, report, created_at
		FROM lesson_analyses WHERE content_hash = $1
		ORDER BY created_at DESC LIMIT 1`, hash)
	return scanAnalysis(row)
}

// ConceptCounts tallies how many stored analyses mention each concept key.
func (s *Store) ConceptCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT concept_key, COUNT(DISTINCT analysis_id)
		FROM analysis_concepts GROUP BY concept_key`)
	if err != nil {
		return nil, fmt.Errorf("query concept counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan concept count: %w", err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func scanAnalysis(row pgx.Row) (*AnalysisRow, error) {
	var a AnalysisRow
	var payload []byte
	err := row.Scan(&a.ID, &a.LessonID, &a.LessonName, &a.ContentHash, &payload, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	a.Report = &analysis.Report{}
	if err := json.Unmarshal(payload, a.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &a, nil
}
