package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/open-rails/learnkit/access"
)

// DecisionCache stores access decisions in Redis under a key namespace.
type DecisionCache struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

// NewDecisionCache creates a Redis-backed decision cache. ttl is the
// default used when Set is called with ttl <= 0.
func NewDecisionCache(rdb *redis.Client, keyPrefix string, ttl time.Duration) *DecisionCache {
	if keyPrefix == "" {
		keyPrefix = "learn:access:decision:"
	}
	if ttl <= 0 {
		ttl = access.DefaultDecisionTTL
	}
	return &DecisionCache{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (c *DecisionCache) key(k string) string { return c.keyNS + k }

func (c *DecisionCache) Get(ctx context.Context, key string) (access.Decision, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return access.Decision{}, false, nil
	}
	if err != nil {
		return access.Decision{}, false, err
	}
	var d access.Decision
	if err := json.Unmarshal(val, &d); err != nil {
		return access.Decision{}, false, err
	}
	return d, true, nil
}

func (c *DecisionCache) Set(ctx context.Context, key string, d access.Decision, ttl time.Duration) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.rdb.Set(ctx, c.key(key), b, ttl).Err()
}

func (c *DecisionCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}

// InvalidatePrefix scans the namespace for keys under prefix and deletes
// them in batches. SCAN keeps this safe on large keyspaces.
func (c *DecisionCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, c.key(prefix)+"*", 0).Iterator()
	batch := make([]string, 0, 128)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}
