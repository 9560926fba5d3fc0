// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript implements the fixed window atomically. The counter is
// only incremented while budget remains, so rejected requests never
// extend the lockout.
var allowScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if count >= limit then
  return {0, redis.call('PTTL', KEYS[1])}
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, limit - count}
`)

// RedisLimiter is a fixed-window limiter that shares counters across
// processes through Redis. Window expiry is handled by key TTLs, so no
// sweeping is needed.
type RedisLimiter struct {
	client *redis.Client
	rule   Rule
	prefix string
}

// NewRedis creates a Redis-backed limiter. The prefix should identify
// both the application and the rule, e.g. "inkpress:rl:login:".
func NewRedis(client *redis.Client, rule Rule, prefix string) *RedisLimiter {
	return &RedisLimiter{client: client, rule: rule, prefix: prefix}
}

// NewRedisClient connects to Redis using a URL like
// redis://localhost:6379/0 and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// Allow checks and consumes one unit of budget for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := allowScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		l.rule.Limit, l.rule.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit check: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("redis rate limit check: unexpected reply %v", vals)
	}

	if vals[0] == 0 {
		retryAfter := time.Duration(vals[1]) * time.Millisecond
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}
	return Result{Allowed: true, Remaining: int(vals[1])}, nil
}
