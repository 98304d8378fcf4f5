// Shared handler wiring.
//
// Handlers binds the application services used by the HTTP layer. Individual
// endpoint implementations live in the per-resource files of this package
// (auth_handler.go, friend_handler.go, message_handler.go, ws.go).
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vanish-chat/vanish-backend/internal/services"
	"github.com/vanish-chat/vanish-backend/internal/ws"
)

// Handlers aggregates the API's dependencies.
type Handlers struct {
	accounts *services.AccountService
	friends  *services.FriendService
	messages *services.MessageService
	hub      *ws.Hub

	// wsOrigins lists the origin patterns accepted on websocket upgrades.
	wsOrigins []string
}

// New constructs a Handlers instance bound to the given services. hub may be
// nil when the websocket endpoint is not mounted (tests).
func New(accounts *services.AccountService, friends *services.FriendService, messages *services.MessageService, hub *ws.Hub, wsOrigins []string) *Handlers {
	return &Handlers{
		accounts:  accounts,
		friends:   friends,
		messages:  messages,
		hub:       hub,
		wsOrigins: wsOrigins,
	}
}

// userID extracts the authenticated user id from the Gin context (set by the
// Auth middleware). Returns "" when the request is unauthenticated.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// userName extracts the authenticated display name from the Gin context.
func userName(c *gin.Context) string {
	if v, ok := c.Get("userName"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
