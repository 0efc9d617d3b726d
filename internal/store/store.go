package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no stored analysis matches a lookup.
var ErrNotFound = errors.New("analysis not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS lesson_analyses (
	id               UUID PRIMARY KEY,
	lesson_id        TEXT NOT NULL DEFAULT '',
	lesson_name      TEXT NOT NULL DEFAULT '',
	content_hash     TEXT NOT NULL,
	lesson_type      TEXT NOT NULL,
	complexity_score DOUBLE PRECISION NOT NULL,
	engagement_score DOUBLE PRECISION NOT NULL,
	teaching_style   TEXT NOT NULL,
	report           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS lesson_analyses_content_hash_idx ON lesson_analyses (content_hash, created_at DESC);

CREATE TABLE IF NOT EXISTS analysis_golden_points (
	id          UUID PRIMARY KEY,
	analysis_id UUID NOT NULL REFERENCES lesson_analyses(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	text        TEXT NOT NULL,
	ts          TEXT NOT NULL,
	importance  INT NOT NULL,
	category    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_concepts (
	id           UUID PRIMARY KEY,
	analysis_id  UUID NOT NULL REFERENCES lesson_analyses(id) ON DELETE CASCADE,
	concept_key  TEXT NOT NULL,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL,
	complexity   INT NOT NULL,
	mentioned_at TEXT[] NOT NULL
);
`

// EnsureSchema creates the analysis tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
