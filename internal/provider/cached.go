package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flowradar/flowradar/internal/cache"
)

// CachedProvider serves repeated reads from the tiered cache, with an
// optional Redis tier behind it shared across processes. Quotes and
// chains land in the content tier, price history in the bulk tier.
// Tick streams, news and insider data pass through uncached.
type CachedProvider struct {
	inner  Provider
	cache  *cache.TieredCache
	redis  *cache.RedisCache
	logger zerolog.Logger
}

// NewCachedProvider wraps a provider with the given cache.
func NewCachedProvider(inner Provider, c *cache.TieredCache) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  c,
		logger: log.With().Str("component", "cached_provider").Logger(),
	}
}

// WithRedis adds a shared Redis tier consulted on in-memory misses and
// written through on fills. Redis failures degrade to the inner
// provider rather than failing the read.
func (c *CachedProvider) WithRedis(r *cache.RedisCache) *CachedProvider {
	c.redis = r
	return c
}

// redisGet reads a shared-tier value into dest, swallowing transport
// errors so a Redis outage never blocks a scan.
func (c *CachedProvider) redisGet(ctx context.Context, tier cache.Tier, key string, dest interface{}) bool {
	if c.redis == nil {
		return false
	}
	hit, err := c.redis.Get(ctx, tier, key, dest)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Redis read failed")
		return false
	}
	return hit
}

func (c *CachedProvider) redisSet(ctx context.Context, tier cache.Tier, key string, value interface{}) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, tier, key, value); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Redis write failed")
	}
}

func (c *CachedProvider) Quote(ctx context.Context, ticker string) (*Quote, error) {
	key := cache.Key("quote", ticker)
	if v, ok := c.cache.Get(cache.TierContent, key); ok {
		return v.(*Quote), nil
	}
	var shared Quote
	if c.redisGet(ctx, cache.TierContent, key, &shared) {
		c.cache.Set(cache.TierContent, key, &shared)
		return &shared, nil
	}
	quote, err := c.inner.Quote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.TierContent, key, quote)
	c.redisSet(ctx, cache.TierContent, key, quote)
	return quote, nil
}

func (c *CachedProvider) OptionChain(ctx context.Context, ticker string, expiration time.Time) (*OptionChain, error) {
	key := cache.Key("chain", ticker, expiration.Format("2006-01-02"))
	if v, ok := c.cache.Get(cache.TierContent, key); ok {
		return v.(*OptionChain), nil
	}
	var shared OptionChain
	if c.redisGet(ctx, cache.TierContent, key, &shared) {
		c.cache.Set(cache.TierContent, key, &shared)
		return &shared, nil
	}
	chain, err := c.inner.OptionChain(ctx, ticker, expiration)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.TierContent, key, chain)
	c.redisSet(ctx, cache.TierContent, key, chain)
	return chain, nil
}

func (c *CachedProvider) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	key := cache.Key("expirations", ticker)
	if v, ok := c.cache.Get(cache.TierContent, key); ok {
		return v.([]time.Time), nil
	}
	var shared []time.Time
	if c.redisGet(ctx, cache.TierContent, key, &shared) {
		c.cache.Set(cache.TierContent, key, shared)
		return shared, nil
	}
	expirations, err := c.inner.Expirations(ctx, ticker)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.TierContent, key, expirations)
	c.redisSet(ctx, cache.TierContent, key, expirations)
	return expirations, nil
}

func (c *CachedProvider) HistoricalTicks(ctx context.Context, contract Contract, lookback int) ([]Tick, error) {
	return c.inner.HistoricalTicks(ctx, contract, lookback)
}

func (c *CachedProvider) PriceHistory(ctx context.Context, ticker string, period time.Duration) ([]PriceBar, error) {
	key := cache.Key("history", ticker, fmt.Sprintf("%d", int(period.Hours())))
	if v, ok := c.cache.Get(cache.TierBulk, key); ok {
		return v.([]PriceBar), nil
	}
	var shared []PriceBar
	if c.redisGet(ctx, cache.TierBulk, key, &shared) {
		c.cache.Set(cache.TierBulk, key, shared)
		return shared, nil
	}
	bars, err := c.inner.PriceHistory(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cache.TierBulk, key, bars)
	c.redisSet(ctx, cache.TierBulk, key, bars)
	return bars, nil
}

func (c *CachedProvider) News(ctx context.Context, ticker string) ([]NewsItem, error) {
	return c.inner.News(ctx, ticker)
}

func (c *CachedProvider) InsiderTransactions(ctx context.Context, ticker string, window time.Duration) ([]InsiderTransaction, error) {
	return c.inner.InsiderTransactions(ctx, ticker, window)
}
