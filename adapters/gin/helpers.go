// Package learngin adapts the access engines to HTTP. Handlers only
// translate: parse identifiers, call an engine, shape the response. No
// business logic lives here.
package learngin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimiter is the limiter contract handlers accept; both the Redis and
// the in-memory limiter satisfy it.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// Rate-limit buckets used by the handlers.
const (
	RLAccessCheck = "access_check"
	RLCompletion  = "completion"
	RLGrant       = "grant"
)

// AllowNamed applies the limiter keyed by the authenticated user (falling
// back to client IP), failing open when the limiter errors.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	key := c.ClientIP()
	if uid, ok := c.Get("auth.user_id"); ok {
		if s, ok2 := uid.(string); ok2 && s != "" {
			key = s
		}
	}
	ok, err := rl.AllowNamed(bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func BadRequest(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code})
}

func Unauthorized(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
}

func Conflict(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": code})
}

func TooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}

func ServerErr(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": code})
}
