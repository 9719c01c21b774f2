package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the shared state cache with a local redis instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the cache. The connection is lazy; use
// Ping to verify reachability at startup.
func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the cache is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping state cache: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Value, bool, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return Value{}, false, nil
	}
	if err != nil {
		return Value{}, false, fmt.Errorf("get %q: %w", key, err)
	}
	return Parse(raw), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, v Value) error {
	if err := s.client.Set(ctx, key, v.Encode(), 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
