package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "englevel:session:"

// Redis is a Cache backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Redis cache. A zero ttl stores keys without expiry.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: DefaultKeyPrefix, ttl: ttl}
}

// RedisOptions configures DialRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DialRedis connects to Redis and verifies the connection with PING.
func DialRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedis(client, opts.TTL), nil
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

func (r *Redis) Get(ctx context.Context, id string) (*Entry, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decode(data)
}

func (r *Redis) Put(ctx context.Context, e *Entry) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(e.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
