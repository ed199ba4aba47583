package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	learngin "github.com/open-rails/learnkit/adapters/gin"
	"github.com/open-rails/learnkit/access"
)

// HandleAccessCheckGET answers whether the caller may enter a level.
// Denials are 200s with granted=false; only malformed input or engine
// failures are errors.
func HandleAccessCheckGET(chk *access.Checker, rl learngin.RateLimiter) gin.HandlerFunc {
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
		pathID, err := uuid.Parse(c.Param("path_id"))
		if err != nil {
			learngin.BadRequest(c, "invalid_path_id")
			return
		}
		levelID, err := uuid.Parse(c.Param("level_id"))
		if err != nil {
			learngin.BadRequest(c, "invalid_level_id")
			return
		}

		d, err := chk.CheckAccess(c.Request.Context(), uid, pathID, levelID)
		if err != nil {
			learngin.ServerErr(c, "access_check_failed")
			return
		}
		c.JSON(http.StatusOK, d)
	}
}
