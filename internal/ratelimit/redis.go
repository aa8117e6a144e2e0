package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares fixed window counts between replicas. Keys look like
// ratelimit:<key>:<window start unix>. When redis is unreachable it answers
// from the fallback limiter instead of failing the request.
type Redis struct {
	rdb      redis.Cmdable
	limit    int
	window   time.Duration
	now      func() time.Time
	fallback Limiter
	log      *slog.Logger
}

func NewRedis(rdb redis.Cmdable, limit int, window time.Duration, fallback Limiter, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.Default()
	}
	return &Redis{
		rdb:      rdb,
		limit:    limit,
		window:   window,
		now:      time.Now,
		fallback: fallback,
		log:      log,
	}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	start := now.Truncate(r.window)
	windowEnd := start.Add(r.window)

	redisKey := "ratelimit:" + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.ExpireAt(ctx, redisKey, windowEnd.Add(time.Second))
		return nil
	})
	if err != nil {
		if r.fallback == nil {
			return Decision{}, err
		}
		r.log.WarnContext(ctx, "rate limiter falling back to memory", "err", err)
		return r.fallback.Allow(ctx, key)
	}

	count := int(incr.Val())
	if count > r.limit {
		return Decision{Allowed: false, RetryAfter: windowEnd.Sub(now)}, nil
	}

	return Decision{Allowed: true, Remaining: r.limit - count}, nil
}
