package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig locates an optional shared Redis tier.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DefaultRedisConfig is disabled; when enabled it targets a local
// Redis with the flowradar key prefix.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "flowradar",
	}
}

// RedisCache stores JSON-encoded values under prefixed keys with a TTL
// per tier, sharing cached provider data across monitor processes.
type RedisCache struct {
	client *redis.Client
	cfg    Config
	prefix string
}

// NewRedisCache dials Redis and verifies the connection.
func NewRedisCache(ctx context.Context, rc RedisConfig, tiers Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
	}
	return &RedisCache{client: client, cfg: tiers, prefix: rc.Prefix}, nil
}

// NewRedisCacheFromClient wraps an existing client, for tests.
func NewRedisCacheFromClient(client *redis.Client, tiers Config, prefix string) *RedisCache {
	return &RedisCache{client: client, cfg: tiers, prefix: prefix}
}

func (r *RedisCache) tierTTL(tier Tier) time.Duration {
	switch tier {
	case TierResult:
		return r.cfg.Result.TTL
	case TierBulk:
		return r.cfg.Bulk.TTL
	default:
		return r.cfg.Content.TTL
	}
}

func (r *RedisCache) fullKey(tier Tier, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, tier, key)
}

// Set marshals the value and stores it with the tier's TTL.
func (r *RedisCache) Set(ctx context.Context, tier Tier, key string, value interface{}) error {
	ttl := r.tierTTL(tier)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.fullKey(tier, key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get unmarshals a cached value into dest. It returns false on a miss
// and an error only on transport or decode failure.
func (r *RedisCache) Get(ctx context.Context, tier Tier, key string, dest interface{}) (bool, error) {
	payload, err := r.client.Get(ctx, r.fullKey(tier, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cache value for %s: %w", key, err)
	}
	return true, nil
}

// Delete removes one key.
func (r *RedisCache) Delete(ctx context.Context, tier Tier, key string) error {
	return r.client.Del(ctx, r.fullKey(tier, key)).Err()
}

// Close releases the client connection.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
