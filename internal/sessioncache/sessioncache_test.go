package sessioncache

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/store"
)

func startedEntry(t *testing.T, id string) *Entry {
	t.Helper()
	s := placement.New(placement.Options{Rand: placement.NewRand(7)})
	require.NoError(t, s.Start(questionbank.SeedQuestions()))
	_, err := s.SubmitAnswer("zzz")
	require.NoError(t, err)
	return &Entry{
		SessionID: id,
		LearnerID: "alice",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Snapshot:  s.Snapshot(),
	}
}

// exerciseCache runs the behaviour every Cache must share.
func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	e := startedEntry(t, "s1")
	require.NoError(t, c.Put(ctx, e))

	got, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.LearnerID)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, placement.StateInProgress, got.Snapshot.State)
	assert.Len(t, got.Snapshot.History, 1)
	assert.Equal(t, e.Snapshot.Current.ID, got.Snapshot.Current.ID)

	restored, err := placement.Restore(got.Snapshot, placement.Options{})
	require.NoError(t, err)
	assert.True(t, restored.Answered())

	require.NoError(t, c.Delete(ctx, "s1"))
	require.NoError(t, c.Delete(ctx, "s1"))
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	exerciseCache(t, NewMemory(time.Hour))
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, startedEntry(t, "s1")))
	assert.Equal(t, 1, m.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, m.Len())
	_, err := m.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Isolation(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	e := startedEntry(t, "s1")
	require.NoError(t, m.Put(ctx, e))
	e.Snapshot.History = nil

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Snapshot.History, 1)
}

func TestMemory_PutWithoutID(t *testing.T) {
	m := NewMemory(0)
	assert.Error(t, m.Put(context.Background(), &Entry{}))
	assert.Error(t, m.Put(context.Background(), nil))
}

var dbCounter atomic.Int64

func openSQL(t *testing.T, ttl time.Duration) *SQL {
	t.Helper()
	dsn := fmt.Sprintf("file:sessioncache_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	st, err := store.Open(store.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewSQL(st.SnapshotRepo(), ttl)
}

func TestSQL(t *testing.T) {
	exerciseCache(t, openSQL(t, time.Hour))
}

func TestSQL_Prune(t *testing.T) {
	c := openSQL(t, time.Hour)
	ctx := context.Background()
	now := time.Now()

	c.now = func() time.Time { return now.Add(-2 * time.Hour) }
	require.NoError(t, c.Put(ctx, startedEntry(t, "old")))
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, startedEntry(t, "fresh")))

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = c.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSQL_ExpiresOnRead(t *testing.T) {
	c := openSQL(t, time.Hour)
	ctx := context.Background()
	now := time.Now()

	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, startedEntry(t, "s1")))

	c.now = func() time.Time { return now.Add(59 * time.Minute) }
	_, err := c.Get(ctx, "s1")
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(48 * time.Hour) }
	_, err = c.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	// A write refreshes the entry.
	require.NoError(t, c.Put(ctx, startedEntry(t, "s1")))
	_, err = c.Get(ctx, "s1")
	assert.NoError(t, err)
}

func TestSQL_NoTTLNeverExpires(t *testing.T) {
	c := openSQL(t, 0)
	ctx := context.Background()
	now := time.Now()

	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, startedEntry(t, "s1")))
	c.now = func() time.Time { return now.Add(24 * 365 * time.Hour) }

	_, err := c.Get(ctx, "s1")
	assert.NoError(t, err)
	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQL_RunPruner(t *testing.T) {
	c := openSQL(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	c.now = func() time.Time { return now.Add(-2 * time.Hour) }
	require.NoError(t, c.Put(ctx, startedEntry(t, "old")))
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, startedEntry(t, "fresh")))

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.RunPruner(ctx, 5*time.Millisecond, nil)
	}()

	assert.Eventually(t, func() bool {
		data, _, err := c.repo.Load(context.Background(), "old")
		return err == nil && data == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop after cancel")
	}

	data, _, err := c.repo.Load(context.Background(), "fresh")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("ENGLEVEL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ENGLEVEL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := DialRedis(ctx, RedisOptions{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer r.Close()

	r.prefix = fmt.Sprintf("englevel:test:%d:", time.Now().UnixNano())
	exerciseCache(t, r)

	require.NoError(t, r.Put(ctx, startedEntry(t, "ttl")))
	ttl, err := r.client.TTL(ctx, r.key("ttl")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	require.NoError(t, r.Delete(ctx, "ttl"))
}

func TestDialRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := DialRedis(ctx, RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, redis.Nil)
}
