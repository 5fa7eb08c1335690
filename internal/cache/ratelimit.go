package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// bucket describes one token bucket: who it counts, how fast it refills and
// how long an idle bucket is kept.
type bucket struct {
	scope    string
	perMilli float64
	burst    int
	idle     time.Duration
}

func subjectBucket(perMinute, burst int) bucket {
	return bucket{scope: "subject", perMilli: float64(perMinute) / 60000, burst: burst, idle: 2 * time.Minute}
}

func ipBucket(perSecond, burst int) bucket {
	return bucket{scope: "ip", perMilli: float64(perSecond) / 1000, burst: burst, idle: 10 * time.Second}
}

// key names the bucket for value. Values are hashed so neither emails nor
// client addresses end up in Redis key names.
func (b bucket) key(value string) string {
	return "ratelimit:" + b.scope + ":" + hashKey(value)
}

// takeToken refills the bucket for the time elapsed since its last use and
// then tries to take one token. Times are milliseconds. It returns
// {allowed, wait_ms, tokens_left}.
var takeToken = redis.NewScript(`
local key      = KEYS[1]
local perMilli = tonumber(ARGV[1])
local burst    = tonumber(ARGV[2])
local nowMs    = tonumber(ARGV[3])
local idleMs   = tonumber(ARGV[4])

local state  = redis.call('HMGET', key, 'tokens', 'at')
local tokens = tonumber(state[1]) or burst
local at     = tonumber(state[2]) or nowMs

tokens = math.min(burst, tokens + math.max(0, nowMs - at) * perMilli)

local allowed, waitMs = 0, 0
if tokens >= 1 then
	tokens  = tokens - 1
	allowed = 1
else
	waitMs = math.ceil((1 - tokens) / perMilli)
end

redis.call('HSET', key, 'tokens', tokens, 'at', nowMs)
redis.call('PEXPIRE', key, idleMs)

return {allowed, waitMs, math.floor(tokens)}
`)

// CheckSubjectRateLimit takes a token from the verified identity's bucket.
// A zero rate disables the limit.
func (c *Cache) CheckSubjectRateLimit(ctx context.Context, subject string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return unlimited(burst, time.Minute), nil
	}
	return c.take(ctx, subjectBucket(ratePerMinute, burst), subject)
}

// CheckIPRateLimit takes a token from the client address's bucket.
// A zero rate disables the limit.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return unlimited(burst, time.Second), nil
	}
	return c.take(ctx, ipBucket(ratePerSecond, burst), ip)
}

func (c *Cache) take(ctx context.Context, b bucket, value string) (*RateLimitResult, error) {
	now := time.Now()

	out, err := takeToken.Run(ctx, c.client,
		[]string{b.key(value)},
		b.perMilli, b.burst, now.UnixMilli(), b.idle.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", b.scope, err)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("rate limit %s: unexpected reply %v", b.scope, out)
	}

	refill := time.Duration(math.Ceil(1/b.perMilli)) * time.Millisecond
	return &RateLimitResult{
		Allowed:    out[0] == 1,
		Remaining:  out[2],
		ResetAt:    now.Add(refill),
		RetryAfter: time.Duration(out[1]) * time.Millisecond,
	}, nil
}

func unlimited(burst int, window time.Duration) *RateLimitResult {
	return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: time.Now().Add(window)}
}

// hashKey returns 16 hex characters of the BLAKE2b-256 digest of value.
func hashKey(value string) string {
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
