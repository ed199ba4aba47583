package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// CompletionTracker implements progress.Tracker over the external progress
// schema. Read-only evidence; completions are written by the grading
// pipeline, not by this module.
type CompletionTracker struct {
	db     *DB
	schema string
}

// NewCompletionTracker constructs the tracker. An empty schema defaults to
// "progress".
func NewCompletionTracker(db *DB, schema string) *CompletionTracker {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "progress"
	}
	return &CompletionTracker{db: db, schema: s}
}

func (t *CompletionTracker) IsLevelCompleted(ctx context.Context, userID, levelID uuid.UUID) (bool, error) {
	var ok bool
	err := t.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+t.schema+`.level_completions
		   WHERE user_id=$1 AND level_id=$2 AND completed
		 )`,
		userID, levelID,
	).Scan(&ok)
	return ok, err
}

// BadgeStore implements progress.BadgeStore. Badges live in the
// entitlements schema since this module owns awarding them.
type BadgeStore struct {
	db     *DB
	schema string
}

// NewBadgeStore constructs the badge store. An empty schema defaults to
// "entitlements".
func NewBadgeStore(db *DB, schema string) *BadgeStore {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "entitlements"
	}
	return &BadgeStore{db: db, schema: s}
}

func (b *BadgeStore) badgesTable() string { return b.schema + ".path_badges" }

func (b *BadgeStore) HasBadge(ctx context.Context, userID, pathID uuid.UUID) (bool, error) {
	var ok bool
	err := b.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM `+b.badgesTable()+` WHERE user_id=$1 AND path_id=$2
		 )`,
		userID, pathID,
	).Scan(&ok)
	return ok, err
}

// Award inserts the badge if absent; the primary key makes double awards a
// no-op rather than an error.
func (b *BadgeStore) Award(ctx context.Context, userID, pathID uuid.UUID) (bool, error) {
	tag, err := b.db.Pool.Exec(ctx,
		`INSERT INTO `+b.badgesTable()+` (user_id, path_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, path_id) DO NOTHING`,
		userID, pathID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
