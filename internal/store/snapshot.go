package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo on the ent SQL driver.
type snapshotRepo struct {
	drv *entsql.Driver
	b   *entsql.DialectBuilder
}

// SnapshotRepo returns a SnapshotRepo backed by this store.
func (s *Store) SnapshotRepo() SnapshotRepo {
	return &snapshotRepo{drv: s.drv, b: entsql.Dialect(s.dialect)}
}

func (r *snapshotRepo) Save(ctx context.Context, sessionID string, data []byte, updatedAt time.Time) error {
	query, args := r.b.Insert("session_snapshots").
		Columns("session_id", "data", "updated_at").
		Values(sessionID, string(data), updatedAt.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("session_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Load(ctx context.Context, sessionID string) ([]byte, time.Time, error) {
	query, args := r.b.Select("data", "updated_at").
		From(r.b.Table("session_snapshots")).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, time.Time{}, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, time.Time{}, fmt.Errorf("query snapshot: %w", err)
		}
		return nil, time.Time{}, nil
	}
	var (
		data      string
		updatedAt int64
	)
	if err := rows.Scan(&data, &updatedAt); err != nil {
		return nil, time.Time{}, fmt.Errorf("scan snapshot: %w", err)
	}
	return []byte(data), time.UnixMilli(updatedAt), nil
}

func (r *snapshotRepo) Delete(ctx context.Context, sessionID string) error {
	query, args := r.b.Delete("session_snapshots").
		Where(entsql.EQ("session_id", sessionID)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := r.b.Delete("session_snapshots").
		Where(entsql.LT("updated_at", cutoff.UnixMilli())).
		Query()
	n, err := execAffected(ctx, r.drv, query, args)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return n, nil
}
