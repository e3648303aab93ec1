package cache

import (
	"context"
	"errors"
	"os"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces schedule cache entries so Clear never touches keys
// owned by other users of the same Redis database.
const keyPrefix = "schedcache:"

// RedisStore persists cache entries in Redis. Entries never expire; staleness
// is handled by the checksum verification pass.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient creates a Redis client from the REDIS_ADDR environment
// variable, defaulting to a local instance.
func NewRedisClient() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	return redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})
}

// NewRedisStore wraps an existing Redis client as a Store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, keyPrefix+key, value, 0).Err()
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
