package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores session keys in Redis, the store this bot ran against
// historically. Ephemeral keys use SET with a 120s expiry; durable keys
// have no expiry.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis store from a redis URL
// (e.g. redis://localhost:6379/0).
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session: get %q: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ephemeral bool) error {
	ttl := noExpiry
	if ephemeral {
		ttl = EphemeralTTL
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("session: set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("session: delete %q: %w", key, err)
	}
	return nil
}

// noExpiry is go-redis's "no TTL" sentinel.
const noExpiry time.Duration = 0
