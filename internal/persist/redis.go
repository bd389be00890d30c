package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps snapshots as plain Redis strings without expiry.
type RedisStorage struct {
	rdb *redis.Client
}

// NewRedis wraps an already connected client.
func NewRedis(rdb *redis.Client) *RedisStorage {
	return &RedisStorage{rdb: rdb}
}

// Load returns the value under key, or nil when there is none.
func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return b, nil
}

// Save writes value under key.
func (s *RedisStorage) Save(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStorage) Close() error {
	return s.rdb.Close()
}
