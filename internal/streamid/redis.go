package streamid

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the reusable stream id lives when no key is
// configured.
const DefaultRedisKey = "ytscheduler:reusable_stream_id"

// RedisStore keeps the id under a single key with no TTL — the stream is
// reusable indefinitely, so the id must not expire.
type RedisStore struct {
	Client *redis.Client
	Key    string
}

func (s *RedisStore) key() string {
	if s.Key != "" {
		return s.Key
	}
	return DefaultRedisKey
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	if s == nil || s.Client == nil {
		return "", fmt.Errorf("nil redis client")
	}
	val, err := s.Client.Get(ctx, s.key()).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis GET %s: %w", s.key(), err)
	}
	id := strings.TrimSpace(val)
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (s *RedisStore) Save(ctx context.Context, id string) error {
	if s == nil || s.Client == nil {
		return fmt.Errorf("nil redis client")
	}
	if err := s.Client.Set(ctx, s.key(), id, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", s.key(), err)
	}
	return nil
}
