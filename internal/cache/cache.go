// Package cache provides a tiered in-memory TTL cache for provider
// responses, plus an optional Redis tier for sharing across processes.
package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Tier buckets cached data by volatility.
type Tier string

const (
	// TierContent holds raw provider payloads (quotes, chains, ticks).
	TierContent Tier = "content"
	// TierResult holds computed results (scores, signals, analyses).
	TierResult Tier = "result"
	// TierBulk holds large slow-moving payloads (price history).
	TierBulk Tier = "bulk"
)

// evictFraction of the oldest entries is dropped when a tier hits its
// capacity, so a hot scan does not thrash one entry at a time.
const evictFraction = 0.25

// TierConfig sets one tier's TTL and entry cap.
type TierConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// Config holds per-tier settings.
type Config struct {
	Content TierConfig `yaml:"content"`
	Result  TierConfig `yaml:"result"`
	Bulk    TierConfig `yaml:"bulk"`
}

// DefaultConfig suits a watchlist-sized universe.
func DefaultConfig() Config {
	return Config{
		Content: TierConfig{TTL: 60 * time.Second, MaxEntries: 2000},
		Result:  TierConfig{TTL: 5 * time.Minute, MaxEntries: 500},
		Bulk:    TierConfig{TTL: 30 * time.Minute, MaxEntries: 200},
	}
}

// ScaledConfig widens TTLs and caps for larger universes: a full-market
// sweep revisits each ticker far less often, so staleness matters less
// than provider load.
func ScaledConfig(universeSize int) Config {
	cfg := DefaultConfig()
	switch {
	case universeSize > 1000:
		cfg.Content = TierConfig{TTL: 5 * time.Minute, MaxEntries: 20000}
		cfg.Result = TierConfig{TTL: 30 * time.Minute, MaxEntries: 5000}
		cfg.Bulk = TierConfig{TTL: 2 * time.Hour, MaxEntries: 2000}
	case universeSize > 100:
		cfg.Content = TierConfig{TTL: 2 * time.Minute, MaxEntries: 5000}
		cfg.Result = TierConfig{TTL: 15 * time.Minute, MaxEntries: 1500}
		cfg.Bulk = TierConfig{TTL: time.Hour, MaxEntries: 500}
	}
	return cfg
}

type entry struct {
	data     interface{}
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Stats reports per-tier occupancy and hit counters.
type Stats struct {
	Entries   map[Tier]int `json:"entries"`
	Hits      int64        `json:"hits"`
	Misses    int64        `json:"misses"`
	Evictions int64        `json:"evictions"`
}

// TieredCache is a mutex-guarded map cache with per-tier TTL and
// capacity. Set replaces entries atomically under the lock, so readers
// never observe a half-written value.
type TieredCache struct {
	mu    sync.RWMutex
	tiers map[Tier]map[string]*entry
	cfg   Config

	hits      int64
	misses    int64
	evictions int64

	onHit  func()
	onMiss func()
}

// New builds a cache with the given tier settings.
func New(cfg Config) *TieredCache {
	return &TieredCache{
		tiers: map[Tier]map[string]*entry{
			TierContent: make(map[string]*entry),
			TierResult:  make(map[string]*entry),
			TierBulk:    make(map[string]*entry),
		},
		cfg: cfg,
	}
}

// Instrument registers hit/miss callbacks, typically Prometheus counter
// increments. Either may be nil.
func (c *TieredCache) Instrument(onHit, onMiss func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHit = onHit
	c.onMiss = onMiss
}

func (c *TieredCache) tierConfig(tier Tier) TierConfig {
	switch tier {
	case TierResult:
		return c.cfg.Result
	case TierBulk:
		return c.cfg.Bulk
	default:
		return c.cfg.Content
	}
}

// Key builds a stable cache key from a kind and its identifying parts.
func Key(kind string, parts ...string) string {
	key := kind
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// Set stores a value in a tier, evicting the oldest quarter of the
// tier first when it is full.
func (c *TieredCache) Set(tier Tier, key string, data interface{}) {
	cfg := c.tierConfig(tier)
	if cfg.TTL <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := c.tiers[tier]
	if _, replacing := bucket[key]; !replacing && cfg.MaxEntries > 0 && len(bucket) >= cfg.MaxEntries {
		c.evictOldest(bucket)
	}
	bucket[key] = &entry{data: data, storedAt: time.Now(), ttl: cfg.TTL}
}

// Get returns a live value, or (nil, false) on miss or expiry.
func (c *TieredCache) Get(tier Tier, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bucket := c.tiers[tier]
	e, ok := bucket[key]
	if !ok {
		c.miss()
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(bucket, key)
		c.miss()
		return nil, false
	}
	c.hits++
	if c.onHit != nil {
		c.onHit()
	}
	return e.data, true
}

// miss bumps the counter and callback. Caller holds the write lock.
func (c *TieredCache) miss() {
	c.misses++
	if c.onMiss != nil {
		c.onMiss()
	}
}

// Delete removes one key from a tier.
func (c *TieredCache) Delete(tier Tier, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tiers[tier], key)
}

// Clear empties every tier.
func (c *TieredCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for tier := range c.tiers {
		c.tiers[tier] = make(map[string]*entry)
	}
}

// CleanExpired drops expired entries across all tiers and returns how
// many were removed.
func (c *TieredCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for _, bucket := range c.tiers {
		for key, e := range bucket {
			if e.expired(now) {
				delete(bucket, key)
				cleaned++
			}
		}
	}
	return cleaned
}

// Stats snapshots occupancy and counters.
func (c *TieredCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		Entries:   make(map[Tier]int, len(c.tiers)),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	for tier, bucket := range c.tiers {
		stats.Entries[tier] = len(bucket)
	}
	return stats
}

// StartCleanupWorker sweeps expired entries until stop is closed.
func (c *TieredCache) StartCleanupWorker(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-stop:
				return
			}
		}
	}()
}

// evictOldest removes the oldest quarter of a full bucket. Caller
// holds the write lock.
func (c *TieredCache) evictOldest(bucket map[string]*entry) {
	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(bucket))
	for key, e := range bucket {
		all = append(all, aged{key: key, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	n := int(float64(len(all)) * evictFraction)
	if n < 1 {
		n = 1
	}
	for _, a := range all[:n] {
		delete(bucket, a.key)
		c.evictions++
	}
}

// String implements fmt.Stringer for log lines.
func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d evictions=%d content=%d result=%d bulk=%d",
		s.Hits, s.Misses, s.Evictions,
		s.Entries[TierContent], s.Entries[TierResult], s.Entries[TierBulk])
}
