// Package cache holds Redis-backed helpers.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rotisserie/eris"
)

const dedupKeyPrefix = "callbridge:conv:"

// setNXClient is the part of *redis.Client the dedup store needs.
type setNXClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisDedup remembers accepted conversation ids for a TTL.
type RedisDedup struct {
	client setNXClient
	ttl    time.Duration
}

func NewRedisDedup(client setNXClient, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDedup{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "redis: parse url")
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, eris.Wrap(err, "redis: ping")
	}
	return rdb, nil
}

// Seen marks the conversation and reports whether it was already marked.
// An empty id is never a duplicate.
func (d *RedisDedup) Seen(ctx context.Context, conversationID string) (bool, error) {
	if conversationID == "" {
		return false, nil
	}

	created, err := d.client.SetNX(ctx, dedupKeyPrefix+conversationID, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, eris.Wrapf(err, "redis: setnx %s", conversationID)
	}
	return !created, nil
}

func (d *RedisDedup) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}
