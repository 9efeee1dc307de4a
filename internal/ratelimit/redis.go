package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrUnexpectedReply = errors.New("ratelimit: unexpected script reply")

// fixedWindowScript counts hits in KEYS[1]; the first hit starts the window.
// Reply: {allowed (0|1), remaining window in ms}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
local ttl = redis.call("PTTL", KEYS[1])
if current > tonumber(ARGV[1]) then
  return {0, ttl}
end
return {1, ttl}
`)

// RedisLimiter is a fixed window counter shared by every API instance.
type RedisLimiter struct {
	Client *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
	// FailOpen lets requests through when redis is unreachable.
	FailOpen bool
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.Client == nil {
		return true, 0, nil
	}
	limit, window := normalize(l.Limit, l.Window)

	res, err := fixedWindowScript.Run(ctx, l.Client, []string{l.Prefix + key}, limit, window.Milliseconds()).Result()
	if err != nil {
		if l.FailOpen {
			return true, 0, nil
		}
		return false, 0, err
	}

	values, ok := res.([]any)
	if !ok || len(values) != 2 {
		return false, 0, ErrUnexpectedReply
	}
	allowed, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}

	return allowed == 1, time.Duration(ttlMs) * time.Millisecond, nil
}
