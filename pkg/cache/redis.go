package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ausmash:"

// RedisStore persists entries in Redis, for sharing one cache between
// processes. Entries are kept past their declared expiry (the Redis TTL
// includes the retention period) so the stale fallback still works.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a store from a redis:// URL
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisStore{
		client:    redis.NewClient(opts),
		retention: DefaultRetention,
	}, nil
}

// NewRedisStoreWithClient wraps an existing client, useful for tests
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, retention: DefaultRetention}
}

// WithRetention overrides how long expired entries remain retrievable
func (s *RedisStore) WithRetention(retention time.Duration) *RedisStore {
	s.retention = retention
	return s
}

func redisKey(key Key) string {
	return redisKeyPrefix + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = s.client.Del(ctx, redisKey(key)).Err()
		return nil, ErrMiss
	}
	return &entry, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// Keep the entry around for the retention period past its expiry so
	// it can be served stale on transport failures.
	expiration := time.Until(entry.ExpiresAt) + s.retention
	if expiration < s.retention {
		expiration = s.retention
	}

	if err := s.client.Set(ctx, redisKey(key), data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
