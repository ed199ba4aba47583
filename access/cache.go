package access

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DecisionCache is an advisory, short-TTL cache of access decisions.
// Losing entries must never change an outcome, only cost a recomputation:
// a miss (including on expiry) always triggers a full decision, never a
// default grant or deny.
type DecisionCache interface {
	Get(ctx context.Context, key string) (Decision, bool, error)
	Set(ctx context.Context, key string, d Decision, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error

	// InvalidatePrefix drops every key under the prefix, so one unlock can
	// clear all decisions scoped to a (user, path) without enumerating them.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Key is the cache key for a (user, path, level) decision.
func Key(userID, pathID, levelID uuid.UUID) string {
	return PathKey(userID, pathID) + ":" + levelID.String()
}

// PathKey is the cache key for a path-as-a-whole decision. It is also a
// prefix of every level key under the same (user, path), which is what
// makes prefix invalidation cover both.
func PathKey(userID, pathID uuid.UUID) string {
	return userID.String() + ":" + pathID.String()
}

// NopCache always misses. Useful in tests and wherever caching is not wired.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Decision, bool, error)         { return Decision{}, false, nil }
func (NopCache) Set(context.Context, string, Decision, time.Duration) error { return nil }
func (NopCache) Invalidate(context.Context, ...string) error                { return nil }
func (NopCache) InvalidatePrefix(context.Context, string) error             { return nil }
