// Package access decides whether a user may enter a level and advances the
// unlock frontier as levels are completed. Both engines live in one package
// so that the store's frontier has a single mutation path: the Checker's
// free-first-level self-heal goes through the same Unlocker entry point as
// every other write.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/learnkit/entitlements"
	"github.com/open-rails/learnkit/hierarchy"
)

// Source tags how a grant was derived.
type Source string

const (
	SourceExplicitUnlock Source = "explicit_unlock"
	SourceFreeFirstLevel Source = "free_first_level"
)

// Reason tags why access was denied. Denial is an expected, frequent
// outcome and travels as data, not as an error.
type Reason string

const (
	ReasonNoCategoryAccess Reason = "no_category_access"
	ReasonLevelNotUnlocked Reason = "level_not_unlocked"
)

// Decision is the result of one access check.
type Decision struct {
	Granted bool   `json:"granted"`
	Source  Source `json:"source,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
}

// DefaultDecisionTTL bounds how long a cached decision may lag the store.
const DefaultDecisionTTL = 30 * time.Second

// Checker is the access decision engine.
type Checker struct {
	store    entitlements.Store
	content  hierarchy.Reader
	cache    DecisionCache
	unlocker *Unlocker
	ttl      time.Duration
	log      *logrus.Logger
}

// NewChecker wires the decision engine. cache may be nil; a NopCache is
// substituted. If ttl <= 0, DefaultDecisionTTL is used.
func NewChecker(store entitlements.Store, content hierarchy.Reader, cache DecisionCache, unlocker *Unlocker, ttl time.Duration, log *logrus.Logger) *Checker {
	if cache == nil {
		cache = NopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultDecisionTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Checker{store: store, content: content, cache: cache, unlocker: unlocker, ttl: ttl, log: log}
}

// CheckAccess reports whether userID may enter levelID of pathID.
//
// Note the write side effect: the first level of any path inside a category
// the user holds an active entitlement for is unlocked on first access
// (self-healing), so checking access can mutate the frontier. The unlock is
// idempotent; re-checking an untouched first level never duplicates entries.
func (c *Checker) CheckAccess(ctx context.Context, userID, pathID, levelID uuid.UUID) (Decision, error) {
	key := Key(userID, pathID, levelID)
	if d, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("decision cache read failed")
	} else if ok {
		return d, nil
	}

	d, err := c.decide(ctx, userID, pathID, levelID)
	if err != nil {
		return Decision{}, err
	}
	// A self-healed decision just mutated the frontier it describes; leave
	// it uncached so the next check reads the explicit unlock.
	if d.Source != SourceFreeFirstLevel {
		if err := c.cache.Set(ctx, key, d, c.ttl); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("decision cache write failed")
		}
	}
	return d, nil
}

func (c *Checker) decide(ctx context.Context, userID, pathID, levelID uuid.UUID) (Decision, error) {
	p, err := c.content.GetPath(ctx, pathID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve path %s: %w", pathID, err)
	}

	ent, err := c.store.FindActive(ctx, userID, p.CategoryID)
	if err != nil {
		return Decision{}, err
	}
	if ent == nil {
		return Decision{Granted: false, Reason: ReasonNoCategoryAccess}, nil
	}

	unlocked, err := c.store.HasUnlockedLevel(ctx, ent.ID, pathID, levelID)
	if err != nil {
		return Decision{}, err
	}
	if unlocked {
		return Decision{Granted: true, Source: SourceExplicitUnlock}, nil
	}

	levels, err := c.content.GetLevelsForPath(ctx, pathID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve levels of path %s: %w", pathID, err)
	}
	if len(levels) > 0 && levels[0].ID == levelID {
		if _, err := c.unlocker.UnlockLevel(ctx, userID, p.CategoryID, pathID, levelID); err != nil {
			return Decision{}, err
		}
		return Decision{Granted: true, Source: SourceFreeFirstLevel}, nil
	}

	return Decision{Granted: false, Reason: ReasonLevelNotUnlocked}, nil
}
