package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyFormat = "%s%s:session"

// RedisStore keeps sessions in redis with native key expiry.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	opts      Options
}

// NewRedisStore wraps an existing client. keyPrefix namespaces the keys.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, opts Options) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix, opts: opts}
}

// Get returns the stored category; a missing key is reported with ok=false.
func (r *RedisStore) Get(ctx context.Context, userID string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: redis get: %w", ErrBackend, err)
	}
	return val, true, nil
}

// Set stores the category and applies the configured TTL.
func (r *RedisStore) Set(ctx context.Context, userID, category string) error {
	if err := r.client.Set(ctx, r.key(userID), category, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", ErrBackend, err)
	}
	return nil
}

// Delete removes the key.
func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %w", ErrBackend, err)
	}
	return nil
}

func (r *RedisStore) key(userID string) string {
	return fmt.Sprintf(redisKeyFormat, r.keyPrefix, userID)
}
