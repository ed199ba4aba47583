package redislimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is a Redis-backed fixed-window counter. One INCR+EXPIRE pipeline
// per call; windows are aligned to wall-clock multiples of their duration.
type Limiter struct {
	rdb    *redis.Client
	keyNS  string
	limits map[string]Limit
}

func New(rdb *redis.Client, keyPrefix string, limits map[string]Limit) *Limiter {
	if keyPrefix == "" {
		keyPrefix = "learn:rl:"
	}
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{rdb: rdb, keyNS: keyPrefix, limits: limits}
}

func (l *Limiter) get(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 120, Window: time.Minute}
}

// AllowNamed reports whether one more request in the bucket is allowed for
// key. A nil limiter or client allows everything.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}
	lim := l.get(bucket)
	ctx := context.Background()
	window := time.Now().UnixMilli() / lim.Window.Milliseconds()
	counterKey := fmt.Sprintf("%s%s:%s:%d", l.keyNS, bucket, key, window)

	pipe := l.rdb.TxPipeline()
	countCmd := pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return countCmd.Val() <= int64(lim.Limit), nil
}
