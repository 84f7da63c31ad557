package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// The window starts with the first request; INCR and PEXPIRE run as one
// script so a counter never outlives its window.
var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

type RedisLimiter struct {
	client redis.UniversalClient
}

func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (bool, error) {
	k := keyPrefix + key
	n, err := incrWindow.Run(ctx, l.client, []string{k}, rule.Window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis rate limit %s: %w", k, err)
	}
	return n <= int64(rule.Requests), nil
}
