// Package cache implements the two-tier response cache described in §4.E.2:
// an in-process fixed-capacity LRU (L1) backed by an optional, best-effort
// Redis store (L2). L2 failures never fail a request — the cache fails open
// and the caller proceeds as though L2 were empty.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
)

// Entry is a cached, fully-serialized positions response plus its ETag, so a
// subsequent hit costs no re-serialization (§4.E.2).
type Entry struct {
	Data []byte `json:"data"`
	ETag string `json:"etag"`
}

// Source reports which tier answered a Get.
type Source string

const (
	SourceL1   Source = "l1"
	SourceL2   Source = "l2"
	SourceMiss Source = "miss"
)

type l1Entry struct {
	entry     Entry
	expiresAt time.Time
}

// Cache is the Orchestrator's L1+L2 response cache.
type Cache struct {
	l1   *lru.Cache
	l1mu sync.Mutex
	ttl  time.Duration

	l2        *redis.Client
	l2Enabled bool

	hits, misses, evictions int64

	logger *slog.Logger
}

// New builds the cache: an L1 LRU of the given capacity, and, if l2Enabled
// and redisURL is non-empty, an L2 Redis client. A failed L2 connection at
// startup does not fail New — it logs and runs L1-only (fail open).
func New(l1Size int, ttl time.Duration, redisURL string, l2Enabled bool, logger *slog.Logger) (*Cache, error) {
	if l1Size <= 0 {
		l1Size = 1
	}
	l1, err := lru.New(l1Size)
	if err != nil {
		return nil, fmt.Errorf("cache: creating L1 LRU: %w", err)
	}

	c := &Cache{l1: l1, ttl: ttl, logger: logger}

	if l2Enabled && redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: parsing L2 url: %w", err)
		}
		client := redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("cache L2 unreachable at startup; continuing L1-only (fail open)", "error", err)
		} else {
			c.l2 = client
			c.l2Enabled = true
			logger.Info("cache L2 connection established", "addr", opt.Addr)
		}
	}
	return c, nil
}

// Close releases the L2 client, if any.
func (c *Cache) Close() error {
	if c.l2 != nil {
		return c.l2.Close()
	}
	return nil
}

// Get looks up key in L1, then L2 on miss (hydrating L1), per §4.E.1 step 4.
func (c *Cache) Get(ctx context.Context, key string) (Entry, Source, bool) {
	c.l1mu.Lock()
	if v, ok := c.l1.Get(key); ok {
		le := v.(l1Entry)
		if time.Now().Before(le.expiresAt) {
			c.l1mu.Unlock()
			atomic.AddInt64(&c.hits, 1)
			return le.entry, SourceL1, true
		}
		c.l1.Remove(key)
	}
	c.l1mu.Unlock()

	if c.l2Enabled {
		data, err := c.l2.Get(ctx, l2Key(key)).Bytes()
		if err != nil {
			if err != redis.Nil {
				c.logger.Warn("cache L2 read failed; treating as miss (fail open)", "error", err)
			}
		} else {
			var entry Entry
			if err := json.Unmarshal(data, &entry); err == nil {
				c.hydrateL1(key, entry)
				atomic.AddInt64(&c.hits, 1)
				return entry, SourceL2, true
			}
		}
	}

	atomic.AddInt64(&c.misses, 1)
	return Entry{}, SourceMiss, false
}

// Set inserts entry into L1 and, best-effort, write-through into L2 (§4.E.2).
func (c *Cache) Set(ctx context.Context, key string, entry Entry) {
	c.hydrateL1(key, entry)

	if c.l2Enabled {
		data, err := json.Marshal(entry)
		if err != nil {
			c.logger.Error("cache L2 marshal failed", "error", err)
			return
		}
		if err := c.l2.Set(ctx, l2Key(key), data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache L2 write failed (fail open, L1 still populated)", "error", err)
		}
	}
}

func (c *Cache) hydrateL1(key string, entry Entry) {
	c.l1mu.Lock()
	defer c.l1mu.Unlock()
	evicted := c.l1.Add(key, l1Entry{entry: entry, expiresAt: time.Now().Add(c.ttl)})
	if evicted {
		atomic.AddInt64(&c.evictions, 1)
	}
}

// L1Len reports the current number of live L1 entries (for involution_cache_size_entries).
func (c *Cache) L1Len() int {
	c.l1mu.Lock()
	defer c.l1mu.Unlock()
	return c.l1.Len()
}

// HitRate reports the running hit ratio in [0,1] for involution_cache_hit_rate.
func (c *Cache) HitRate() float64 {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Evictions reports the cumulative count of L1 entries evicted to make room.
func (c *Cache) Evictions() int64 {
	return atomic.LoadInt64(&c.evictions)
}

// L2Enabled reports whether an L2 store is configured and was reachable at startup.
func (c *Cache) L2Enabled() bool {
	return c.l2Enabled
}

// L2Reachable pings L2, for the /healthz L2 reachability field.
func (c *Cache) L2Reachable(ctx context.Context) bool {
	if !c.l2Enabled {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.l2.Ping(pingCtx).Err() == nil
}

func l2Key(fingerprint string) string {
	return "involution:positions:" + fingerprint
}
