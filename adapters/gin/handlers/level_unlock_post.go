package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	learngin "github.com/open-rails/learnkit/adapters/gin"
	"github.com/open-rails/learnkit/access"
	"github.com/open-rails/learnkit/entitlements"
)

type levelUnlockRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	CategoryID string `json:"category_id" binding:"required"`
	PathID     string `json:"path_id" binding:"required"`
	LevelID    string `json:"level_id" binding:"required"`
}

// HandleLevelUnlockPOST unlocks a specific level for a user. Admin-facing;
// routing must gate it. Idempotent: repeating the call reports applied=false.
func HandleLevelUnlockPOST(u *access.Unlocker, rl learngin.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !learngin.AllowNamed(c, rl, learngin.RLGrant) {
			learngin.TooMany(c)
			return
		}
		var req levelUnlockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			learngin.BadRequest(c, "invalid_body")
			return
		}
		ids := make([]uuid.UUID, 4)
		for i, raw := range []string{req.UserID, req.CategoryID, req.PathID, req.LevelID} {
			id, err := uuid.Parse(raw)
			if err != nil {
				learngin.BadRequest(c, "invalid_id")
				return
			}
			ids[i] = id
		}

		applied, err := u.UnlockLevel(c.Request.Context(), ids[0], ids[1], ids[2], ids[3])
		if errors.Is(err, entitlements.ErrNoActiveEntitlement) {
			learngin.Conflict(c, "no_active_entitlement")
			return
		}
		if err != nil {
			learngin.ServerErr(c, "unlock_failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"applied": applied})
	}
}
