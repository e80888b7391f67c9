package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

// cacheKeyPrefix namespaces every portal key so pattern invalidation never
// touches other tenants of the same Redis.
const cacheKeyPrefix = "portal:"

// invalidateScanCount is the SCAN page size used when expiring by pattern.
const invalidateScanCount = 64

// CacheRepository stores JSON-encoded payloads in Redis under a shared key
// prefix with a uniform TTL.
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheRepository constructs a cache repository. Every Set expires after
// ttl.
func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{client: client, ttl: ttl}
}

// Get retrieves and unmarshals the cached value into dest. A missing key
// yields ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, cacheKeyPrefix+key).Bytes()
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

// Set marshals value and stores it under key with the repository TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, cacheKeyPrefix+key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes every key matching pattern, deleting in batches as the
// SCAN cursor advances.
func (r *CacheRepository) Invalidate(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, cacheKeyPrefix+pattern, invalidateScanCount).Iterator()

	batch := make([]string, 0, invalidateScanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete %d keys: %w", len(batch), err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == invalidateScanCount {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	return flush()
}
