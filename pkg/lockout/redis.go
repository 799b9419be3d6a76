package lockout

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "clubhouse:lockout:"

// Redis shares failure counts between replicas. Each key is a hash with
// fail_count and locked_until (unix seconds). Redis errors fail open: a lost
// count never blocks a legitimate caller.
type Redis struct {
	rdb    redis.Cmdable
	policy Policy
	log    *slog.Logger
}

func NewRedis(rdb redis.Cmdable, p Policy, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.Default()
	}
	return &Redis{rdb: rdb, policy: p, log: log}
}

func (r *Redis) IsLocked(ctx context.Context, key string) (bool, time.Duration) {
	raw, err := r.rdb.HGet(ctx, keyPrefix+key, "locked_until").Result()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn("lockout lookup failed", "err", err)
		}
		return false, 0
	}

	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, 0
	}
	remaining := time.Until(time.Unix(ts, 0))
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

func (r *Redis) RecordFailure(ctx context.Context, key string) {
	k := keyPrefix + key

	count, err := r.rdb.HIncrBy(ctx, k, "fail_count", 1).Result()
	if err != nil {
		r.log.Warn("lockout increment failed", "err", err)
		return
	}
	if err := r.rdb.Expire(ctx, k, r.policy.Retention).Err(); err != nil {
		r.log.Warn("lockout expire failed", "err", err)
	}

	if r.policy.trips(int(count)) {
		until := time.Now().Add(r.policy.Duration(int(count))).Unix()
		if err := r.rdb.HSet(ctx, k, "locked_until", strconv.FormatInt(until, 10)).Err(); err != nil {
			r.log.Warn("lockout set failed", "err", err)
		}
	}
}

func (r *Redis) RecordSuccess(ctx context.Context, key string) {
	if err := r.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.log.Warn("lockout reset failed", "err", err)
	}
}
