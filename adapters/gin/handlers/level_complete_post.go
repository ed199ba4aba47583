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

type levelCompleteRequest struct {
	LevelID string `json:"level_id" binding:"required"`
}

// HandleLevelCompletePOST runs the unlock cascade for a completed level
// and returns the next reachable level, if any.
func HandleLevelCompletePOST(u *access.Unlocker, rl learngin.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !learngin.AllowNamed(c, rl, learngin.RLCompletion) {
			learngin.TooMany(c)
			return
		}
		uid, ok := learngin.UserID(c)
		if !ok {
			learngin.Unauthorized(c, "not_authenticated")
			return
		}
		var req levelCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			learngin.BadRequest(c, "invalid_body")
			return
		}
		levelID, err := uuid.Parse(req.LevelID)
		if err != nil {
			learngin.BadRequest(c, "invalid_level_id")
			return
		}

		next, err := u.OnLevelCompleted(c.Request.Context(), uid, levelID)
		if errors.Is(err, entitlements.ErrNoActiveEntitlement) {
			learngin.Conflict(c, "no_active_entitlement")
			return
		}
		if err != nil {
			learngin.ServerErr(c, "cascade_failed")
			return
		}

		resp := gin.H{"next_level_id": nil}
		if next != nil {
			resp["next_level_id"] = next.String()
		}
		c.JSON(http.StatusOK, resp)
	}
}
