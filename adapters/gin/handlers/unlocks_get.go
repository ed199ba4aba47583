package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	learngin "github.com/open-rails/learnkit/adapters/gin"
	"github.com/open-rails/learnkit/entitlements"
)

// HandleUnlocksGET lists the caller's unlock frontier in a category, for
// client-side progress display.
func HandleUnlocksGET(store entitlements.Store, rl learngin.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !learngin.AllowNamed(c, rl, learngin.RLAccessCheck) {
			learngin.TooMany(c)
			return
		}
		uid, ok := learngin.UserID(c)
		if !ok {
			learngin.Unauthorized(c, "not_authenticated")
			return
		}
		categoryID, err := uuid.Parse(c.Param("category_id"))
		if err != nil {
			learngin.BadRequest(c, "invalid_category_id")
			return
		}

		unlocks, err := store.ListUnlocked(c.Request.Context(), uid, categoryID)
		if err != nil {
			learngin.ServerErr(c, "list_failed")
			return
		}
		if unlocks == nil {
			unlocks = []entitlements.UnlockedLevel{}
		}
		c.JSON(http.StatusOK, gin.H{"unlocked_levels": unlocks})
	}
}
