package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

const resultKeyPrefix = "timetable:result:"

// ResultKey is the Redis key holding the solve result for a fingerprint.
func ResultKey(fingerprint string) string {
	return resultKeyPrefix + fingerprint
}

// ResultCacheRepository stores solve results in Redis as JSON, keyed by fingerprint.
type ResultCacheRepository struct {
	client redis.UniversalClient
}

// NewResultCacheRepository constructs a cache repository. A nil client turns every
// lookup into a miss and every write into a no-op.
func NewResultCacheRepository(client redis.UniversalClient) *ResultCacheRepository {
	return &ResultCacheRepository{client: client}
}

// Get retrieves and unmarshals the cached result into dest.
func (r *ResultCacheRepository) Get(ctx context.Context, fingerprint string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	key := ResultKey(fingerprint)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the result and stores it with the given TTL.
func (r *ResultCacheRepository) Set(ctx context.Context, fingerprint string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	key := ResultKey(fingerprint)

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Delete drops the cached result for a fingerprint.
func (r *ResultCacheRepository) Delete(ctx context.Context, fingerprint string) error {
	if r.client == nil {
		return nil
	}
	key := ResultKey(fingerprint)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *ResultCacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}
