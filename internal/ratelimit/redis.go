package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// admitScript implements the sliding-window admission atomically on the
// Redis side: prune entries older than the window, reject if the survivors
// already reach the limit, record the new entry otherwise. Running it as one
// script keeps admit-and-record atomic across replicas the same way the
// memory limiter's mutex does in-process.
//
// KEYS[1] = window zset, ARGV[1] = now (µs), ARGV[2] = window (µs),
// ARGV[3] = limit, ARGV[4] = key TTL (s), ARGV[5] = unique member so
// same-instant admissions don't collapse. Returns 1 to admit, 0 to reject.
var admitScript = redis.NewScript(`
local cutoff = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', cutoff)
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[5])
redis.call('EXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisLimiter implements Limiter with a sliding window shared through Redis,
// for deployments running more than one replica behind a load balancer. Each
// key holds a sorted set of admission timestamps scored in microseconds; the
// admission semantics match MemoryLimiter exactly.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter connects to Redis at redisURL (redis://[:pass@]host:port/db)
// and returns a limiter admitting at most limit requests per window per key.
// The connection is verified before returning so a bad URL fails at startup,
// not on the first request.
func NewRedisLimiter(ctx context.Context, redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ratelimit: ping redis: %w", err)
	}

	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}, nil
}

// Allow reports whether a request for key should proceed now.
// Backend errors are returned to the caller; Middleware treats them as
// fail-open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().UnixMicro()
	// TTL slightly beyond the window so idle keys expire on their own.
	ttl := int(l.window/time.Second) + 1

	res, err := admitScript.Run(ctx, l.client, []string{"ratelimit:" + key},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(l.window.Microseconds(), 10),
		strconv.Itoa(l.limit),
		strconv.Itoa(ttl),
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis admit: %w", err)
	}
	return res == 1, nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
