package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/questionbank"
)

// questionRepo implements QuestionRepo on the ent SQL driver.
type questionRepo struct {
	drv *entsql.Driver
	b   *entsql.DialectBuilder
}

var questionColumns = []string{
	"id", "prompt", "options", "correct_answer", "level",
	"grammar_category", "grammar_topic", "explanation",
}

func (r *questionRepo) Import(ctx context.Context, questions []questionbank.Question) (n int, err error) {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UnixMilli()
	for _, q := range questions {
		var options any
		if len(q.Options) > 0 {
			raw, err := json.Marshal(q.Options)
			if err != nil {
				return 0, fmt.Errorf("marshal options for %s: %w", q.ID, err)
			}
			options = string(raw)
		}

		query, args := r.b.Insert("questions").
			Columns(append(questionColumns, "created_at")...).
			Values(q.ID, q.Prompt, options, q.CorrectAnswer, string(q.Level),
				q.Category, q.Topic, q.Explanation, now).
			OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
			Query()
		affected, err := execAffected(ctx, tx, query, args)
		if err != nil {
			return 0, fmt.Errorf("insert question %s: %w", q.ID, err)
		}
		n += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

func (r *questionRepo) Count(ctx context.Context) (int, error) {
	query, args := r.b.Select(entsql.Count("*")).
		From(r.b.Table("questions")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}

// Questions implements questionbank.Supplier. Results are ordered by
// distance from target, then by ID.
func (r *questionRepo) Questions(ctx context.Context, target cefr.Level, exclude []string) ([]questionbank.Question, error) {
	sel := r.b.Select(questionColumns...).From(r.b.Table("questions"))
	if len(exclude) > 0 {
		ids := make([]any, len(exclude))
		for i, id := range exclude {
			ids[i] = id
		}
		sel = sel.Where(entsql.NotIn("id", ids...))
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []questionbank.Question
	for rows.Next() {
		var (
			q       questionbank.Question
			options sql.NullString
			level   string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &options, &q.CorrectAnswer, &level,
			&q.Category, &q.Topic, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Level = cefr.Level(level)
		if options.Valid && options.String != "" {
			if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
			}
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	questionbank.SortByDistance(out, target)
	return out, nil
}
