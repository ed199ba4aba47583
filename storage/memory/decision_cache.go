package memorystore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/open-rails/learnkit/access"
)

// DecisionCache is an in-process implementation of access.DecisionCache.
// Intended as a single-node fallback when Redis is unavailable, and for
// tests.
type DecisionCache struct {
	mu     sync.Mutex
	data   map[string]item
	closed chan struct{}
}

type item struct {
	d   access.Decision
	exp time.Time
}

// NewDecisionCache creates an in-memory decision cache.
// Starts a background goroutine that removes expired entries every minute;
// call Close when the cache is no longer needed.
func NewDecisionCache() *DecisionCache {
	c := &DecisionCache{data: make(map[string]item), closed: make(chan struct{})}
	go c.cleanupLoop()
	return c
}

func (c *DecisionCache) Get(ctx context.Context, key string) (access.Decision, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.data[key]
	if !ok {
		return access.Decision{}, false, nil
	}
	if time.Now().After(it.exp) {
		delete(c.data, key)
		return access.Decision{}, false, nil
	}
	return it.d, true, nil
}

func (c *DecisionCache) Set(ctx context.Context, key string, d access.Decision, ttl time.Duration) error {
	_ = ctx
	if ttl <= 0 {
		ttl = access.DefaultDecisionTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = item{d: d, exp: time.Now().Add(ttl)}
	return nil
}

func (c *DecisionCache) Invalidate(ctx context.Context, keys ...string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *DecisionCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *DecisionCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.closed:
			return
		}
	}
}

func (c *DecisionCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.data {
		if now.After(v.exp) {
			delete(c.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
func (c *DecisionCache) Close() error {
	close(c.closed)
	return nil
}
