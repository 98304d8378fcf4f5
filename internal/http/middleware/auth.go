// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Auth() validates the JWT
// from the Authorization header (or, for websocket upgrades where browsers
// cannot set headers, from the "token" query parameter) and stores the
// caller's identity in the Gin context under "userID" and "userName" so the
// logging, rate-limit, and handler layers can use it.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vanish-chat/vanish-backend/internal/services"
)

const bearerPrefix = "Bearer "

// BearerToken extracts the raw token from the request: the Authorization
// header takes precedence, the "token" query parameter is the fallback.
// Returns "" when neither is present.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	return c.Query("token")
}

// Auth returns a Gin middleware that rejects requests without a valid JWT.
//
// On success it sets "userID" and "userName" in the Gin context. On failure
// it aborts with 401 and the standard error envelope:
//
//	{ "request_id": "...", "code": "unauthorized", "message": "invalid or missing token" }
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" {
			abortUnauthorized(c)
			return
		}
		claims, err := services.ParseToken(secret, tok)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set("userID", claims.Subject)
		c.Set("userName", claims.UserName)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "invalid or missing token",
	})
}
