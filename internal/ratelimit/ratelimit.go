// Package ratelimit implements the sibling rate-limiting concern described
// in §4.E.3: a fixed-window counter keyed by client identifier, backed by L2
// (atomic Redis INCR+EXPIRE) when configured, falling back to an in-process
// counter otherwise. L2 failures fail open, matching the cache's policy.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetUnix  int64
	RetryAfter int // seconds
}

// Limiter is a per-minute fixed-window limiter (the Open Question in §9 is
// resolved in favor of a fixed window over a token bucket or sliding log).
type Limiter struct {
	enabled   bool
	perMinute int
	redis     *redis.Client
	script    *redis.Script
	logger    *slog.Logger

	localMu sync.Mutex
	local   map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

// incrementScript atomically increments a fixed-window counter and reports
// its TTL, setting a fresh expiry only on the window's first hit (grounded
// on the same INCR+EXPIRE Lua pattern used for the source's external-API
// rate limiter).
const incrementScript = `
local count = redis.call('INCR', KEYS[1])
local ttl = redis.call('TTL', KEYS[1])
if count == 1 or ttl == -1 then
	redis.call('EXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// New builds a Limiter. redisClient may be nil, in which case checks use
// the in-process window; when enabled is false every check is allowed.
func New(enabled bool, perMinute int, redisClient *redis.Client, logger *slog.Logger) *Limiter {
	return &Limiter{
		enabled:   enabled,
		perMinute: perMinute,
		redis:     redisClient,
		script:    redis.NewScript(incrementScript),
		logger:    logger,
		local:     make(map[string]*window),
	}
}

// Check evaluates clientID against the per-minute limit (§4.E.3).
func (l *Limiter) Check(ctx context.Context, clientID string) (Result, error) {
	if !l.enabled {
		return Result{Allowed: true, Limit: l.perMinute, Remaining: l.perMinute}, nil
	}

	if l.redis != nil {
		res, err := l.checkRedis(ctx, clientID)
		if err == nil {
			return res, nil
		}
		l.logger.Warn("ratelimit L2 unavailable; failing open to in-process counter", "error", err)
	}
	return l.checkLocal(clientID), nil
}

func (l *Limiter) checkRedis(ctx context.Context, clientID string) (Result, error) {
	key := fmt.Sprintf("involution:ratelimit:%s:minute", clientID)
	result, err := l.script.Run(ctx, l.redis, []string{key}, 60).Result()
	if err != nil {
		return Result{}, err
	}
	arr, ok := result.([]interface{})
	if !ok || len(arr) != 2 {
		return Result{}, fmt.Errorf("ratelimit: unexpected script result %v", result)
	}
	count, _ := arr[0].(int64)
	ttlSeconds, _ := arr[1].(int64)

	remaining := l.perMinute - int(count)
	if remaining < 0 {
		remaining = 0
	}
	allowed := count <= int64(l.perMinute)
	retryAfter := 0
	if !allowed {
		retryAfter = int(ttlSeconds)
	}
	return Result{
		Allowed:    allowed,
		Limit:      l.perMinute,
		Remaining:  remaining,
		ResetUnix:  time.Now().Add(time.Duration(ttlSeconds) * time.Second).Unix(),
		RetryAfter: retryAfter,
	}, nil
}

func (l *Limiter) checkLocal(clientID string) Result {
	l.localMu.Lock()
	defer l.localMu.Unlock()

	now := time.Now()
	w, ok := l.local[clientID]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(time.Minute)}
		l.local[clientID] = w
	}
	w.count++

	remaining := l.perMinute - w.count
	if remaining < 0 {
		remaining = 0
	}
	allowed := w.count <= l.perMinute
	retryAfter := 0
	if !allowed {
		retryAfter = int(time.Until(w.resetAt).Seconds())
	}
	return Result{
		Allowed:    allowed,
		Limit:      l.perMinute,
		Remaining:  remaining,
		ResetUnix:  w.resetAt.Unix(),
		RetryAfter: retryAfter,
	}
}

// ClientID derives the rate-limit key: the first address of the
// X-Forwarded-For chain, else the direct socket address (§4.E.3).
func ClientID(xForwardedFor, remoteAddr string) string {
	if xForwardedFor != "" {
		first := strings.TrimSpace(strings.SplitN(xForwardedFor, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	return remoteAddr
}
