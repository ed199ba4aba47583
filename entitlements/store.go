package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoActiveEntitlement is returned by mutating calls when the target
	// entitlement is missing, expired, or cancelled. Callers must never
	// create entitlements implicitly in response to it.
	ErrNoActiveEntitlement = errors.New("entitlements: no active entitlement")

	// ErrEntitlementExists is returned by Create when the user already holds
	// an entitlement for the category.
	ErrEntitlementExists = errors.New("entitlements: entitlement already exists")
)

// Grant describes a new entitlement to create.
type Grant struct {
	UserID     uuid.UUID
	CategoryID uuid.UUID
	AccessType AccessType
	ExpiresAt  *time.Time
}

// Store is the durable source of truth for entitlements and their unlock
// frontiers. All frontier writes go through AppendUnlock; no other code
// path may touch the unlocked set.
type Store interface {
	// Create persists a new active entitlement.
	Create(ctx context.Context, g Grant) (*Entitlement, error)

	// FindActive returns the user's entitlement for the category only if it
	// is currently active; (nil, nil) when there is none. This is the single
	// gate for every access check.
	FindActive(ctx context.Context, userID, categoryID uuid.UUID) (*Entitlement, error)

	// HasUnlockedLevel reports membership of (path, level) in the frontier.
	HasUnlockedLevel(ctx context.Context, entitlementID, pathID, levelID uuid.UUID) (bool, error)

	// AppendUnlock inserts (path, level) into the frontier if absent. The
	// insert must be a single conditional statement at the storage layer so
	// concurrent callers cannot produce duplicates or lost updates. Returns
	// whether a new entry was actually added; returns ErrNoActiveEntitlement
	// when the entitlement is missing or inactive.
	AppendUnlock(ctx context.Context, entitlementID, pathID, levelID uuid.UUID) (applied bool, err error)

	// ListUnlocked returns the frontier for the user's entitlement in the
	// category, in unlock order.
	ListUnlocked(ctx context.Context, userID, categoryID uuid.UUID) ([]UnlockedLevel, error)

	// Cancel marks the user's active entitlement for the category as
	// cancelled; ErrNoActiveEntitlement when there is none.
	Cancel(ctx context.Context, userID, categoryID uuid.UUID) error
}
