package access

import (
	"context"

	"github.com/google/uuid"
)

// EventLogger records unlock and badge events to an external sink (e.g.,
// an analytics pipeline). Implementations should be non-blocking and
// best-effort; failures are logged and never affect the operation.
type EventLogger interface {
	LevelUnlocked(ctx context.Context, userID, pathID, levelID uuid.UUID) error
	BadgeAwarded(ctx context.Context, userID, pathID uuid.UUID) error
}

type nopEvents struct{}

func (nopEvents) LevelUnlocked(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error { return nil }
func (nopEvents) BadgeAwarded(context.Context, uuid.UUID, uuid.UUID) error             { return nil }
