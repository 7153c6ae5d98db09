package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proposal-autofill/internal/config"
	"proposal-autofill/internal/logging"
)

// RedisStore wraps the Redis client; every key lives under a prefix
type RedisStore struct {
	client *redis.Client
	prefix string
	logger logging.Logger
}

// NewRedisStore creates a new Redis-backed store from configuration
func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return NewRedisStoreFromClient(redis.NewClient(opts), cfg.Redis.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logging.GetGlobalLogger().WithField("component", "redis_store"),
	}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Get reads and decodes a JSON value
func (r *RedisStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Set encodes value as JSON and stores it without expiry
func (r *RedisStore) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := r.client.Set(ctx, r.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys
func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// Clear scans for every prefixed key and deletes it
func (r *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	removed := 0

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			removed += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.logger.Debug("Cleared persisted state", map[string]interface{}{"removed": removed})
	return nil
}

// Ping tests the Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
