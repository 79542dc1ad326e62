// internal/app/system/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills in whole intervals and spends one token per call.
// Returns {allowed, tokens_left, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals)
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// TokenBucket is a Redis-backed limiter shared by every instance.
// capacity tokens refill at one per capacity-th of window.
type TokenBucket struct {
	rdb      redis.Scripter
	prefix   string
	capacity int
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenBucket allows bursts of capacity and an average of capacity per window.
func NewTokenBucket(rdb redis.Scripter, prefix string, capacity int, window time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		rdb:      rdb,
		prefix:   prefix,
		capacity: capacity,
		interval: window / time.Duration(capacity),
		ttl:      2 * window,
		now:      time.Now,
	}
}

// Allow spends one token for key.
func (b *TokenBucket) Allow(ctx context.Context, key string) (Decision, error) {
	ttlSeconds := int64(b.ttl / time.Second)
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	res, err := tokenBucketScript.Run(ctx, b.rdb, []string{b.prefix + ":" + key},
		b.now().UnixMilli(),
		b.capacity,
		b.interval.Milliseconds(),
		ttlSeconds,
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit script: %w", err)
	}
	return decodeResult(res, b.capacity)
}

func decodeResult(res []any, capacity int) (Decision, error) {
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit script: unexpected result %v", res)
	}
	return Decision{
		Allowed:    asInt64(res[0]) == 1,
		Limit:      capacity,
		Remaining:  int(asInt64(res[1])),
		RetryAfter: time.Duration(asInt64(res[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}
