// Package hierarchy defines the read-only contract against the content
// hierarchy (categories own paths, paths own ordered levels). The engine
// consumes it but does not own it.
package hierarchy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned for dangling path or level references.
var ErrNotFound = errors.New("hierarchy: not found")

// Level is one step of a path. Order establishes the total order among the
// levels of a path; ties break by level ID so the order is stable.
type Level struct {
	ID     uuid.UUID `json:"id"`
	PathID uuid.UUID `json:"path_id"`
	Order  int       `json:"order"`
}

// Path groups ordered levels under one category.
type Path struct {
	ID         uuid.UUID   `json:"id"`
	CategoryID uuid.UUID   `json:"category_id"`
	LevelIDs   []uuid.UUID `json:"level_ids"` // ascending by Order
}

// Reader supplies hierarchy lookups. Implementations must return
// ErrNotFound (possibly wrapped) for unknown IDs, never empty values.
type Reader interface {
	GetPath(ctx context.Context, pathID uuid.UUID) (Path, error)
	GetLevel(ctx context.Context, levelID uuid.UUID) (Level, error)
	GetLevelsForPath(ctx context.Context, pathID uuid.UUID) ([]Level, error)
	ListPathIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
}
