// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/inkwell/internal/platform/constants"
)

// # Cache

// Cache stores the keys of known purchases.
type Cache interface {
	// Has reports whether key is present.
	Has(context context.Context, key string) (bool, error)
	// Remember stores key until ttl elapses.
	Remember(context context.Context, key string, ttl time.Duration) error
}

// RedisCache implements [Cache] with plain string keys.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a Redis backed purchase cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Has reports whether key is cached.
func (cache *RedisCache) Has(context context.Context, key string) (bool, error) {
	err := cache.client.Get(context, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis_entitlement_get_failed: %w", err)
	}
	return true, nil
}

// Remember caches key for ttl.
func (cache *RedisCache) Remember(context context.Context, key string, ttl time.Duration) error {
	if err := cache.client.Set(context, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_entitlement_set_failed: %w", err)
	}
	return nil
}

// # Cached Ledger

// Source is the ledger a [CachedLedger] falls back to.
type Source interface {
	HasCompletedPurchase(context context.Context, userID, chapterID string) (bool, error)
}

/*
CachedLedger decorates a ledger with a positive-result cache.

Completed purchases are never revoked, so a cached "yes" stays true; a "no" is
never cached because the reader may buy the chapter a second later. Cache
failures are logged and the source ledger answers instead.
*/
type CachedLedger struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedLedger wraps source with cache, keeping positive answers for ttl.
func NewCachedLedger(source Source, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedLedger {
	return &CachedLedger{source: source, cache: cache, ttl: ttl, logger: logger}
}

// HasCompletedPurchase consults the cache, then the source ledger.
func (ledger *CachedLedger) HasCompletedPurchase(context context.Context, userID, chapterID string) (bool, error) {
	key := cacheKey(userID, chapterID)

	hit, err := ledger.cache.Has(context, key)
	if err != nil {
		ledger.logger.Warn("entitlement_cache_read_failed", slog.String("error", err.Error()))
	}
	if hit {
		return true, nil
	}

	purchased, err := ledger.source.HasCompletedPurchase(context, userID, chapterID)
	if err != nil || !purchased {
		return purchased, err
	}

	if err := ledger.cache.Remember(context, key, ledger.ttl); err != nil {
		ledger.logger.Warn("entitlement_cache_write_failed", slog.String("error", err.Error()))
	}
	return true, nil
}

func cacheKey(userID, chapterID string) string {
	return constants.RedisPrefixEntitlement + chapterID + ":user:" + userID
}
