package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/englevel/internal/cefr"
)

// attemptRepo implements AttemptRepo on the ent SQL driver.
type attemptRepo struct {
	drv *entsql.Driver
	b   *entsql.DialectBuilder
	seq *sequenceCounter
}

var attemptColumns = []string{
	"sequence", "session_id", "learner_id", "recommended_level", "confidence",
	"score", "weighted_score", "total_possible", "questions_answered",
	"foundation_penalty", "level_progression", "result", "started_at", "completed_at",
}

var answerColumns = []string{
	"sequence", "session_id", "position", "question_id", "level", "answer",
	"correct", "points", "grammar_category", "grammar_topic",
	"level_before", "level_after", "answered_at",
}

func (r *attemptRepo) SaveAttempt(ctx context.Context, rec *AttemptRecord) (err error) {
	progression, err := json.Marshal(rec.LevelProgression)
	if err != nil {
		return fmt.Errorf("marshal level progression: %w", err)
	}
	result := string(rec.Result)
	if result == "" {
		result = "{}"
	}

	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin attempt tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seq, err := r.seq.Next(ctx, tx)
	if err != nil {
		return err
	}

	query, args := r.b.Insert("attempts").
		Columns(attemptColumns...).
		Values(
			seq, rec.SessionID, rec.LearnerID, string(rec.RecommendedLevel), rec.Confidence,
			rec.Score, rec.WeightedScore, rec.TotalPossible, rec.QuestionsAnswered,
			rec.FoundationPenalty, string(progression), result,
			rec.StartedAt.UnixMilli(), rec.CompletedAt.UnixMilli(),
		).
		Query()
	if err = tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	rec.Sequence = seq

	for i := range rec.Answers {
		a := &rec.Answers[i]
		aseq, err := r.seq.Next(ctx, tx)
		if err != nil {
			return err
		}
		query, args := r.b.Insert("answer_events").
			Columns(answerColumns...).
			Values(
				aseq, rec.SessionID, a.Position, a.QuestionID, string(a.Level), a.Answer,
				a.Correct, a.Points, a.Category, a.Topic,
				string(a.LevelBefore), string(a.LevelAfter), a.AnsweredAt.UnixMilli(),
			).
			Query()
		if err = tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("save answer event: %w", err)
		}
		a.Sequence = aseq
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) GetAttempt(ctx context.Context, sessionID string) (*AttemptRecord, error) {
	query, args := r.b.Select(attemptColumns...).
		From(r.b.Table("attempts")).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	recs, err := r.queryAttempts(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query attempt: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	rec := &recs[0]

	query, args = r.b.Select(answerColumns...).
		From(r.b.Table("answer_events")).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("position").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a                         AnswerRecord
			sid, level, before, after string
			answeredAt                int64
		)
		if err := rows.Scan(&a.Sequence, &sid, &a.Position, &a.QuestionID, &level, &a.Answer,
			&a.Correct, &a.Points, &a.Category, &a.Topic, &before, &after, &answeredAt); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		a.Level = cefr.Level(level)
		a.LevelBefore = cefr.Level(before)
		a.LevelAfter = cefr.Level(after)
		a.AnsweredAt = time.UnixMilli(answeredAt).UTC()
		rec.Answers = append(rec.Answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer events: %w", err)
	}
	return rec, nil
}

func (r *attemptRepo) ListByLearner(ctx context.Context, learnerID string, opts QueryOpts) ([]AttemptRecord, error) {
	preds := []*entsql.Predicate{entsql.EQ("learner_id", learnerID)}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("completed_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("completed_at", opts.To.UnixMilli()))
	}

	sel := r.b.Select(attemptColumns...).
		From(r.b.Table("attempts")).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	recs, err := r.queryAttempts(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return recs, nil
}

func (r *attemptRepo) RecentQuestionIDs(ctx context.Context, learnerID string, limit int) ([]string, error) {
	ae := r.b.Table("answer_events")
	at := r.b.Table("attempts")
	sel := r.b.Select(ae.C("question_id")).
		From(ae).
		Join(at).
		On(ae.C("session_id"), at.C("session_id")).
		Where(entsql.EQ(at.C("learner_id"), learnerID)).
		OrderBy(entsql.Desc(ae.C("sequence")))
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query recent questions: %w", err)
	}
	defer rows.Close()

	var ids []string
	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent question: %w", err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent questions: %w", err)
	}
	return ids, nil
}

func (r *attemptRepo) queryAttempts(ctx context.Context, query string, args []any) ([]AttemptRecord, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		rec, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanAttempt(rows entsql.Rows) (AttemptRecord, error) {
	var (
		rec                    AttemptRecord
		level, progression     string
		result                 string
		startedAt, completedAt int64
	)
	err := rows.Scan(&rec.Sequence, &rec.SessionID, &rec.LearnerID, &level, &rec.Confidence,
		&rec.Score, &rec.WeightedScore, &rec.TotalPossible, &rec.QuestionsAnswered,
		&rec.FoundationPenalty, &progression, &result, &startedAt, &completedAt)
	if err != nil {
		return rec, fmt.Errorf("scan attempt: %w", err)
	}

	rec.RecommendedLevel = cefr.Level(level)
	if err := json.Unmarshal([]byte(progression), &rec.LevelProgression); err != nil {
		return rec, fmt.Errorf("unmarshal level progression: %w", err)
	}
	rec.Result = json.RawMessage(result)
	rec.StartedAt = time.UnixMilli(startedAt).UTC()
	rec.CompletedAt = time.UnixMilli(completedAt).UTC()
	return rec, nil
}

// execAffected runs a statement on q and returns the affected row count.
func execAffected(ctx context.Context, q dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
