package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	learngin "github.com/open-rails/learnkit/adapters/gin"
	"github.com/open-rails/learnkit/access"
	"github.com/open-rails/learnkit/entitlements"
)

type categoryGrantRequest struct {
	UserID     string     `json:"user_id" binding:"required"`
	CategoryID string     `json:"category_id" binding:"required"`
	AccessType string     `json:"access_type" binding:"required"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// HandleCategoryGrantPOST creates an entitlement and opens the first level
// of every path in the category. Admin-facing; routing must gate it.
func HandleCategoryGrantPOST(store entitlements.Store, u *access.Unlocker, rl learngin.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !learngin.AllowNamed(c, rl, learngin.RLGrant) {
			learngin.TooMany(c)
			return
		}
		var req categoryGrantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			learngin.BadRequest(c, "invalid_body")
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			learngin.BadRequest(c, "invalid_user_id")
			return
		}
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			learngin.BadRequest(c, "invalid_category_id")
			return
		}
		accessType := entitlements.AccessType(req.AccessType)
		switch accessType {
		case entitlements.AccessPurchase, entitlements.AccessSubscription,
			entitlements.AccessFree, entitlements.AccessAdmin:
		default:
			learngin.BadRequest(c, "invalid_access_type")
			return
		}

		ent, err := store.Create(c.Request.Context(), entitlements.Grant{
			UserID:     userID,
			CategoryID: categoryID,
			AccessType: accessType,
			ExpiresAt:  req.ExpiresAt,
		})
		if errors.Is(err, entitlements.ErrEntitlementExists) {
			learngin.Conflict(c, "entitlement_exists")
			return
		}
		if err != nil {
			learngin.ServerErr(c, "grant_failed")
			return
		}

		if err := u.UnlockFirstLevels(c.Request.Context(), userID, categoryID); err != nil {
			// The entitlement exists; first levels also self-heal on first
			// access, so report the grant rather than failing it.
			c.JSON(http.StatusCreated, gin.H{"entitlement": ent, "first_levels_unlocked": false})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"entitlement": ent, "first_levels_unlocked": true})
	}
}
