// Websocket upgrade handler.
//
// GET /ws upgrades the connection and hands it to the hub. Browsers cannot
// set headers on websocket handshakes, so the Auth middleware accepts the
// session token via the "token" query parameter on this route.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"github.com/vanish-chat/vanish-backend/internal/http/middleware"
)

// Websocket upgrades the request and serves the client's inbound frames
// until the connection drops. The handler blocks for the lifetime of the
// connection.
func (h *Handlers) Websocket(c *gin.Context) {
	if h.hub == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "websocket transport not configured")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.wsOrigins,
	})
	if err != nil {
		// Accept already wrote an HTTP error response.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	client := h.hub.AddClient(userID(c), userName(c), conn)
	err = h.hub.Serve(c.Request.Context(), client)
	if err != nil && !errors.Is(err, context.Canceled) {
		middleware.LoggerFrom(c).Debug().Err(err).Msg("ws session ended")
	}
}
