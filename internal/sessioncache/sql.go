package sessioncache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/store"
)

// DefaultPruneInterval is how often RunPruner deletes expired rows.
const DefaultPruneInterval = 10 * time.Minute

// SQL is a Cache backed by the store's session_snapshots table. Entries not
// written for longer than the ttl read as missing; RunPruner deletes them.
type SQL struct {
	repo store.SnapshotRepo
	ttl  time.Duration
	now  func() time.Time
}

// NewSQL returns a SQL cache. A zero ttl keeps entries until deleted.
func NewSQL(repo store.SnapshotRepo, ttl time.Duration) *SQL {
	return &SQL{repo: repo, ttl: ttl, now: time.Now}
}

func (c *SQL) Get(ctx context.Context, id string) (*Entry, error) {
	data, updatedAt, err := c.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if data == nil || c.expired(updatedAt) {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (c *SQL) Put(ctx context.Context, e *Entry) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	return c.repo.Save(ctx, e.SessionID, data, c.now())
}

func (c *SQL) Delete(ctx context.Context, id string) error {
	return c.repo.Delete(ctx, id)
}

func (c *SQL) expired(updatedAt time.Time) bool {
	return c.ttl > 0 && !updatedAt.After(c.now().Add(-c.ttl))
}

// Prune removes entries older than the ttl.
func (c *SQL) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	return c.repo.Prune(ctx, c.now().Add(-c.ttl))
}

// RunPruner calls Prune every interval until ctx is done. Failures are
// logged and the loop keeps going.
func (c *SQL) RunPruner(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if c.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Prune(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("prune session snapshots", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("pruned session snapshots", zap.Int64("count", n))
			}
		}
	}
}
