// Package progress holds the completion-evidence contract (external) and
// the badge-holder set (owned here).
package progress

import (
	"context"

	"github.com/google/uuid"
)

// Tracker reads per-user completion records. The unlock engine treats them
// as read-only evidence when deciding whether a path is finished.
type Tracker interface {
	IsLevelCompleted(ctx context.Context, userID, levelID uuid.UUID) (bool, error)
}

// BadgeStore is the set of path-completion badges a user holds.
type BadgeStore interface {
	HasBadge(ctx context.Context, userID, pathID uuid.UUID) (bool, error)

	// Award adds the badge if absent and reports whether it was newly
	// granted. Insert-if-absent semantics keep awarding idempotent under
	// repeated completion submissions.
	Award(ctx context.Context, userID, pathID uuid.UUID) (applied bool, err error)
}
