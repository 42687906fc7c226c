// Package ratelimit bounds requests per caller. Counters live in Redis so
// every replica shares them; a process-local token bucket takes over while
// Redis is unreachable.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether key may perform one more request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// fixedWindowScript increments the window counter and starts its expiry on
// the first hit. Returns 1 when the request is within the limit.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	return 0
end
return 1
`)

// RedisLimiter is a fixed-window counter shared through Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit requests per window for each key.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := time.Now().UnixMilli() / l.window.Milliseconds()
	redisKey := l.prefix + key + ":" + strconv.FormatInt(windowStart, 10)
	result, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, l.limit, l.window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

type localEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LocalLimiter keeps one token bucket per key in memory.
type LocalLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*localEntry
}

// NewLocalLimiter refills limit tokens per window with a bucket of the same size.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &LocalLimiter{
		limit:   rate.Limit(float64(limit) / window.Seconds()),
		burst:   limit,
		ttl:     2 * window,
		entries: make(map[string]*localEntry),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now
	l.mu.Unlock()
	return entry.limiter.AllowN(now, 1), nil
}

// Cleanup drops buckets idle for longer than twice the window.
func (l *LocalLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// Size reports how many buckets are tracked.
func (l *LocalLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// FallbackLimiter asks primary first and uses fallback when primary errors.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	logger   *zap.Logger
}

// NewFallbackLimiter builds the composite. primary may be nil.
func NewFallbackLimiter(primary, fallback Limiter, logger *zap.Logger) *FallbackLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackLimiter{primary: primary, fallback: fallback, logger: logger}
}

func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.primary != nil {
		allowed, err := l.primary.Allow(ctx, key)
		if err == nil {
			return allowed, nil
		}
		l.logger.Warn("shared rate limiter unavailable, using local buckets", zap.Error(err))
	}
	return l.fallback.Allow(ctx, key)
}
