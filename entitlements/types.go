package entitlements

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an entitlement.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// AccessType records how an entitlement was obtained.
type AccessType string

const (
	AccessPurchase     AccessType = "purchase"
	AccessSubscription AccessType = "subscription"
	AccessFree         AccessType = "free"
	AccessAdmin        AccessType = "admin"
)

// Entitlement grants a user access to one category. The unlock frontier
// (which levels inside the category the user may enter) lives in a child
// set keyed by (path, level); see Store.
type Entitlement struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CategoryID  uuid.UUID  `json:"category_id"`
	Status      Status     `json:"status"`
	AccessType  AccessType `json:"access_type"`
	ActivatedAt time.Time  `json:"activated_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"` // nil means never expires
}

// UnlockedLevel is one entry of the unlock frontier.
type UnlockedLevel struct {
	PathID     uuid.UUID `json:"path_id"`
	LevelID    uuid.UUID `json:"level_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// IsActive reports whether the entitlement currently grants access.
func (e *Entitlement) IsActive() bool {
	return e.IsActiveAt(time.Now())
}

// IsActiveAt evaluates the expiry predicate at an explicit instant.
// Expiry is lazy: rows do not have to be swept to "expired" for reads
// to be correct.
func (e *Entitlement) IsActiveAt(now time.Time) bool {
	if e == nil || e.Status != StatusActive {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}
