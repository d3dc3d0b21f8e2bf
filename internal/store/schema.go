package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// schema is applied in order on every Open. {{PK}} expands to the
// dialect's auto-increment primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		prompt TEXT NOT NULL,
		options TEXT,
		correct_answer TEXT NOT NULL,
		level TEXT NOT NULL,
		grammar_category TEXT NOT NULL,
		grammar_topic TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS questions_level_idx ON questions (level)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id {{PK}},
		sequence BIGINT NOT NULL,
		session_id TEXT NOT NULL UNIQUE,
		learner_id TEXT NOT NULL,
		recommended_level TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		weighted_score DOUBLE PRECISION NOT NULL,
		total_possible DOUBLE PRECISION NOT NULL,
		questions_answered INTEGER NOT NULL,
		foundation_penalty BOOLEAN NOT NULL DEFAULT FALSE,
		level_progression TEXT NOT NULL,
		result TEXT NOT NULL,
		started_at BIGINT NOT NULL,
		completed_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_learner_idx ON attempts (learner_id, completed_at)`,
	`CREATE TABLE IF NOT EXISTS answer_events (
		id {{PK}},
		sequence BIGINT NOT NULL,
		session_id TEXT NOT NULL REFERENCES attempts (session_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		level TEXT NOT NULL,
		answer TEXT NOT NULL,
		correct BOOLEAN NOT NULL,
		points DOUBLE PRECISION NOT NULL,
		grammar_category TEXT NOT NULL,
		grammar_topic TEXT NOT NULL,
		level_before TEXT NOT NULL,
		level_after TEXT NOT NULL,
		answered_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS answer_events_session_idx ON answer_events (session_id, position)`,
	`CREATE TABLE IF NOT EXISTS session_snapshots (
		session_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialect.Postgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{PK}}", pk)
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
