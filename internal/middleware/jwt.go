package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jee-solver/internal/dto"
	"jee-solver/internal/models"
	"jee-solver/pkg/jwt"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// JWTAuth rejects requests without a valid bearer token.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			dto.JsonError(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}
		if !ok {
			dto.JsonError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}
		if !authenticate(c, token, secret) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through but still rejects a token
// that is present and invalid.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			c.Next()
			return
		}
		if !ok {
			dto.JsonError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}
		if !authenticate(c, token, secret) {
			return
		}
		c.Next()
	}
}

// Identity returns the caller set by the auth middleware; anonymous callers
// get an empty identity.
func Identity(c *gin.Context) models.Identity {
	return models.Identity{
		UserID: c.GetString(ContextUserID),
		Email:  c.GetString(ContextEmail),
	}
}

func authenticate(c *gin.Context, token, secret string) bool {
	claims, err := jwt.ValidateAccessToken(token, secret)
	if err != nil {
		dto.JsonError(c, http.StatusUnauthorized, "Invalid or expired token")
		c.Abort()
		return false
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	return true
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so a token query parameter is accepted there.
func bearerToken(c *gin.Context) (token string, present, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			return q, true, true
		}
		return "", false, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", true, false
	}
	return parts[1], true, true
}
