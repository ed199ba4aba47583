package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

type window struct {
	count int
	reset time.Time
}

// Limiter is an in-memory fixed-window counter, the single-node fallback
// when Redis is unavailable. Stale windows are dropped as they are touched
// so memory stays bounded by the active key set.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	windows map[string]*window
}

// New constructs an in-memory limiter with the provided per-bucket limits.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{limits: limits, windows: make(map[string]*window)}
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
// key.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}
	lim := l.get(bucket)
	now := time.Now()
	wkey := bucket + ":" + key

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[wkey]
	if !ok || now.After(w.reset) {
		w = &window{reset: now.Add(lim.Window)}
		l.windows[wkey] = w
	}
	if w.count >= lim.Limit {
		return false, nil
	}
	w.count++
	return true, nil
}
