package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// takeScript refills the bucket from the redis clock and takes one token.
// Tokens are stored in thousandths so fractional refills survive rounding.
const takeScript = `
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2]) * 1000
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local stored = redis.call("HMGET", KEYS[1], "milli", "at")
local milli = tonumber(stored[1]) or capacity
local at = tonumber(stored[2]) or now
if now > at then
  milli = math.min(capacity, milli + (now - at) * rate)
end

local allowed = 0
if milli >= 1000 then
  allowed = 1
  milli = milli - 1000
end

redis.call("HSET", KEYS[1], "milli", milli, "at", now)
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, math.floor(milli)}
`

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// bucket is a redis token bucket shared by every replica.
type bucket struct {
	client *redis.Client
	script *redis.Script
	rate   float64
	burst  int
	ttl    time.Duration
}

func newBucket(client *redis.Client, rate float64, burst int) *bucket {
	return &bucket{
		client: client,
		script: redis.NewScript(takeScript),
		rate:   rate,
		burst:  burst,
		ttl:    idleTTL(rate, burst),
	}
}

func (b *bucket) take(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, errors.New("bucket key is empty")
	}
	reply, err := b.script.Run(ctx, b.client, []string{key}, b.rate, b.burst, b.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(reply) != 2 {
		return nil, errors.New("unexpected bucket reply")
	}

	res := &Result{
		Allowed:   reply[0] == 1,
		Limit:     b.burst,
		Remaining: int(reply[1] / 1000),
	}
	if !res.Allowed {
		missing := float64(1000 - reply[1])
		res.RetryAfter = time.Duration(missing / 1000 / b.rate * float64(time.Second))
	}
	return res, nil
}

// idleTTL keeps an untouched bucket for twice its full refill time.
func idleTTL(rate float64, burst int) time.Duration {
	seconds := math.Max(1, math.Ceil(2*float64(burst)/rate))
	return time.Duration(seconds) * time.Second
}
