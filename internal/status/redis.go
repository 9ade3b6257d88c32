package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"factcheck/internal/logging"
)

const redisPingTimeout = 3 * time.Second

// RedisKV stores entries in Redis with native expiry.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV connects to rawURL (redis://...) and verifies the server answers.
func NewRedisKV(ctx context.Context, rawURL string) (*RedisKV, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Close releases the connection pool.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// OpenKV returns a Redis store when redisURL is set and reachable, otherwise an
// in-memory store. The fallback is logged, not fatal.
func OpenKV(ctx context.Context, redisURL string, logger *slog.Logger) KV {
	if strings.TrimSpace(redisURL) == "" {
		return NewMemoryKV(nil)
	}
	kv, err := NewRedisKV(ctx, redisURL)
	if err != nil {
		logging.NewComponentLogger(logger, "status").Warn("redis unavailable; using in-memory job status",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check status.redis_url or FACTCHECK_REDIS_URL"),
		)
		return NewMemoryKV(nil)
	}
	return kv
}
