package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the global monotonic sequence shared by attempts
// and answer events, so rows in both tables can be ordered against each
// other. The mutex serializes within the process; UPDATE ... RETURNING makes
// the increment atomic in the database.
type sequenceCounter struct {
	mu sync.Mutex
	b  *entsql.DialectBuilder
}

// newSequenceCounter seeds the counter row if it is missing.
func newSequenceCounter(ctx context.Context, drv *entsql.Driver) (*sequenceCounter, error) {
	b := entsql.Dialect(drv.Dialect())
	query, args := b.Insert("global_sequence").
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{b: b}, nil
}

// Next atomically returns the next sequence number. It runs on q so callers
// can draw numbers inside their own transaction.
func (sc *sequenceCounter) Next(ctx context.Context, q dialect.ExecQuerier) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	query, args := sc.b.Update("global_sequence").
		Add("next_val", 1).
		Where(entsql.EQ("id", 1)).
		Returning("next_val").
		Query()

	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer rows.Close()

	next, err := entsql.ScanInt64(rows)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next - 1, nil
}
