package learngin

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthConfig configures bearer-token verification for the adapter.
type AuthConfig struct {
	// Secret verifies HS256 tokens minted by the platform's auth service.
	Secret []byte
	// Issuer, when set, is required to match the token's iss claim.
	Issuer string
}

// AuthRequired verifies the Authorization bearer token and stores the
// caller's user ID under "auth.user_id". The sub claim must be a UUID;
// anything else is rejected rather than coerced (identifier type is fixed
// at the boundary).
func AuthRequired(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(raw, "Bearer ") {
			Unauthorized(c, "missing_bearer_token")
			return
		}
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return cfg.Secret, nil
		}, opts...)
		if err != nil {
			Unauthorized(c, "invalid_token")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			Unauthorized(c, "missing_subject")
			return
		}
		if _, err := uuid.Parse(sub); err != nil {
			Unauthorized(c, "invalid_subject")
			return
		}

		c.Set("auth.user_id", sub)
		c.Next()
	}
}

// UserID returns the authenticated caller's ID set by AuthRequired.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("auth.user_id")
	if !ok {
		return uuid.Nil, false
	}
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
