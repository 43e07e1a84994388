package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	TTL       time.Duration
	OpTimeout time.Duration
}

// Redis is a Cache backed by Redis. Values are stored as JSON under
// Prefix+key. Backend failures are logged and treated as misses so a Redis
// outage degrades to upstream fetches instead of failing requests.
type Redis[T any] struct {
	rdb    redis.Cmdable
	cfg    RedisConfig
	logger *zap.Logger
}

// NewRedisClient opens a standalone client and verifies it with PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.OpTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// NewRedis wraps an existing client.
func NewRedis[T any](rdb redis.Cmdable, cfg RedisConfig, logger *zap.Logger) *Redis[T] {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 500 * time.Millisecond
	}
	return &Redis[T]{rdb: rdb, cfg: cfg, logger: logger}
}

func (c *Redis[T]) key(k string) string { return c.cfg.Prefix + k }

func (c *Redis[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("redis value decode failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

func (c *Redis[T]) Set(ctx context.Context, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("redis value encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, c.key(key), raw, c.cfg.TTL).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Redis[T]) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}
