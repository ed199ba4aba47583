package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/learnkit/entitlements"
	"github.com/open-rails/learnkit/hierarchy"
	"github.com/open-rails/learnkit/progress"
)

// Unlocker is the unlock engine: the only writer of the unlock frontier.
// It owns decision-cache invalidation; the store mutation is the unit that
// must not be lost, while a failed invalidation only costs staleness and is
// logged rather than rolled back.
type Unlocker struct {
	store   entitlements.Store
	content hierarchy.Reader
	tracker progress.Tracker
	badges  progress.BadgeStore
	cache   DecisionCache
	events  EventLogger
	log     *logrus.Logger
}

// NewUnlocker wires the unlock engine. cache, events and log may be nil.
func NewUnlocker(store entitlements.Store, content hierarchy.Reader, tracker progress.Tracker, badges progress.BadgeStore, cache DecisionCache, events EventLogger, log *logrus.Logger) *Unlocker {
	if cache == nil {
		cache = NopCache{}
	}
	if events == nil {
		events = nopEvents{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Unlocker{store: store, content: content, tracker: tracker, badges: badges, cache: cache, events: events, log: log}
}

// UnlockLevel adds (path, level) to the user's frontier in the category.
// Idempotent: a second identical call is a no-op reporting applied=false,
// and skips cache invalidation and event emission.
func (u *Unlocker) UnlockLevel(ctx context.Context, userID, categoryID, pathID, levelID uuid.UUID) (applied bool, err error) {
	ent, err := u.store.FindActive(ctx, userID, categoryID)
	if err != nil {
		return false, err
	}
	if ent == nil {
		return false, entitlements.ErrNoActiveEntitlement
	}

	applied, err = u.store.AppendUnlock(ctx, ent.ID, pathID, levelID)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	if err := u.cache.InvalidatePrefix(ctx, PathKey(userID, pathID)); err != nil {
		u.log.WithError(err).WithFields(logrus.Fields{
			"user": userID, "path": pathID, "level": levelID,
		}).Warn("decision cache invalidation failed after unlock")
	}
	if err := u.events.LevelUnlocked(ctx, userID, pathID, levelID); err != nil {
		u.log.WithError(err).Warn("unlock event emission failed")
	}
	return true, nil
}

// UnlockFirstLevels unlocks the lowest-order level of every path in the
// category. Runs once at entitlement-grant time; paths are independent, so
// a failure on one does not stop the others.
func (u *Unlocker) UnlockFirstLevels(ctx context.Context, userID, categoryID uuid.UUID) error {
	pathIDs, err := u.content.ListPathIDs(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("list paths of category %s: %w", categoryID, err)
	}

	var firstErr error
	for _, pathID := range pathIDs {
		levels, err := u.content.GetLevelsForPath(ctx, pathID)
		if err == nil && len(levels) == 0 {
			continue
		}
		if err == nil {
			_, err = u.UnlockLevel(ctx, userID, categoryID, pathID, levels[0].ID)
		}
		if err != nil {
			u.log.WithError(err).WithFields(logrus.Fields{
				"user": userID, "path": pathID,
			}).Error("first-level unlock failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// OnLevelCompleted advances the frontier after levelID was completed and
// returns the now-reachable next level, or nil at the end of the path. At
// the end of the path it checks full completion and awards the path badge
// exactly once.
//
// A level that cannot be resolved in the hierarchy aborts the cascade with
// a logged error and a nil result: progression-unlock failures must never
// fail the completion request that triggered them.
func (u *Unlocker) OnLevelCompleted(ctx context.Context, userID, levelID uuid.UUID) (*uuid.UUID, error) {
	lv, err := u.content.GetLevel(ctx, levelID)
	if err != nil {
		u.abortCascade(userID, levelID, err)
		return nil, nil
	}
	p, err := u.content.GetPath(ctx, lv.PathID)
	if err != nil {
		u.abortCascade(userID, levelID, err)
		return nil, nil
	}
	levels, err := u.content.GetLevelsForPath(ctx, lv.PathID)
	if err != nil {
		u.abortCascade(userID, levelID, err)
		return nil, nil
	}

	idx := -1
	for i, l := range levels {
		if l.ID == levelID {
			idx = i
			break
		}
	}
	if idx < 0 {
		u.abortCascade(userID, levelID, hierarchy.ErrNotFound)
		return nil, nil
	}

	if idx+1 < len(levels) {
		next := levels[idx+1].ID
		ent, err := u.store.FindActive(ctx, userID, p.CategoryID)
		if err != nil {
			return nil, err
		}
		if ent == nil {
			return nil, entitlements.ErrNoActiveEntitlement
		}
		unlocked, err := u.store.HasUnlockedLevel(ctx, ent.ID, p.ID, next)
		if err != nil {
			return nil, err
		}
		if !unlocked {
			if _, err := u.UnlockLevel(ctx, userID, p.CategoryID, p.ID, next); err != nil {
				return nil, err
			}
		}
		return &next, nil
	}

	// Last level of the path: award the completion badge if everything is done.
	u.maybeAwardBadge(ctx, userID, p.ID, levels)
	return nil, nil
}

func (u *Unlocker) maybeAwardBadge(ctx context.Context, userID, pathID uuid.UUID, levels []hierarchy.Level) {
	for _, l := range levels {
		done, err := u.tracker.IsLevelCompleted(ctx, userID, l.ID)
		if err != nil {
			u.log.WithError(err).WithFields(logrus.Fields{
				"user": userID, "path": pathID, "level": l.ID,
			}).Warn("completion lookup failed, skipping badge check")
			return
		}
		if !done {
			return
		}
	}

	has, err := u.badges.HasBadge(ctx, userID, pathID)
	if err != nil {
		u.log.WithError(err).Warn("badge lookup failed")
		return
	}
	if has {
		return
	}
	applied, err := u.badges.Award(ctx, userID, pathID)
	if err != nil {
		u.log.WithError(err).WithFields(logrus.Fields{
			"user": userID, "path": pathID,
		}).Error("badge award failed")
		return
	}
	if applied {
		if err := u.events.BadgeAwarded(ctx, userID, pathID); err != nil {
			u.log.WithError(err).Warn("badge event emission failed")
		}
	}
}

func (u *Unlocker) abortCascade(userID, levelID uuid.UUID, err error) {
	entry := u.log.WithFields(logrus.Fields{"user": userID, "level": levelID})
	if errors.Is(err, hierarchy.ErrNotFound) {
		entry.WithError(err).Error("completed level does not resolve to a path, cascade aborted")
		return
	}
	entry.WithError(err).Error("hierarchy lookup failed, cascade aborted")
}
