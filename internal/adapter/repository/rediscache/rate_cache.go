// Package rediscache provides a read-through redis cache over the rate
// pair repository. Rates are read on every quote and written rarely, so
// a short TTL takes most lookups off the primary store without serving
// stale rates for long.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sangmo-land/BBinance-sub000/internal/domain"
)

const keyNamespace = "rates"

// RateCache implements domain.RatePairRepository by caching lookups
// from an underlying repository in redis.
type RateCache struct {
	client redis.UniversalClient
	next   domain.RatePairRepository
	ttl    time.Duration
}

// NewRateCache creates a rate cache in front of next.
func NewRateCache(client redis.UniversalClient, next domain.RatePairRepository, ttl time.Duration) *RateCache {
	return &RateCache{client: client, next: next, ttl: ttl}
}

func cacheKey(from, to string) string {
	return keyNamespace + ":" + domain.NormalizeCurrency(from) + ":" + domain.NormalizeCurrency(to)
}

// GetPair serves the pair from redis when present, falling back to the
// underlying repository and populating the cache on a miss. A redis
// outage degrades to uncached lookups rather than failing the quote.
func (c *RateCache) GetPair(ctx context.Context, from, to string) (*domain.RatePair, error) {
	cached, err := c.client.Get(ctx, cacheKey(from, to)).Result()
	if err == nil {
		rate, parseErr := decimal.NewFromString(cached)
		if parseErr == nil {
			return &domain.RatePair{
				From: domain.NormalizeCurrency(from),
				To:   domain.NormalizeCurrency(to),
				Rate: rate,
			}, nil
		}
		// Unparseable entry: drop it and fall through to the store.
		c.client.Del(ctx, cacheKey(from, to))
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	pair, err := c.next.GetPair(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if setErr := c.client.Set(ctx, cacheKey(pair.From, pair.To), pair.Rate.String(), c.ttl).Err(); setErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return pair, nil
}

// Upsert writes through to the underlying repository and invalidates
// the cached entry for both directions of the pair.
func (c *RateCache) Upsert(ctx context.Context, pair *domain.RatePair) error {
	if err := c.next.Upsert(ctx, pair); err != nil {
		return err
	}

	if err := c.client.Del(ctx, cacheKey(pair.From, pair.To), cacheKey(pair.To, pair.From)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached rate %s/%s: %w", pair.From, pair.To, err)
	}

	return nil
}
