// Message HTTP handlers.
//
// This file exposes REST access to the ephemeral message engine:
//   - GET/POST /chats/:friendId/messages   (1:1 room derived from the caller and friendId)
//   - GET/POST /groups/:groupId/messages   (named group room; group must exist)
//   - GET      /groups                     (groups the caller belongs to)
//   - POST     /messages/:id/react         (single-reaction-per-user toggle)
//   - POST     /messages/:id/read          (idempotent read receipt)
//   - DELETE   /messages/wipe              (drop every 1:1 room of the caller)
//
// Handlers are transport-thin: validate inputs, delegate to MessageService,
// and map sentinel errors onto the standard envelope. Event fan-out happens
// inside the service after a mutation commits; handlers never touch the hub.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/state"
)

// PostMessageRequest is the JSON payload for sending a message to a room.
type PostMessageRequest struct {
	// Body is the message text. It must be non-empty after trimming.
	Body string `json:"body" binding:"required,min=1"`
}

// PostMessageResponse wraps a newly appended message.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// ListMessagesResponse contains the live messages of one room in insertion
// order. Expired messages are filtered out before the response is built.
type ListMessagesResponse struct {
	Messages []*domain.Message `json:"messages"`
}

// ReactRequest is the JSON payload for toggling a reaction.
type ReactRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// MessageResponse wraps the post-mutation state of a message.
type MessageResponse struct {
	Message *domain.Message `json:"message"`
}

// WipeResponse reports how many rooms a wipe removed.
type WipeResponse struct {
	RoomsRemoved int `json:"roomsRemoved"`
}

// ListGroupsResponse contains the groups the caller belongs to.
type ListGroupsResponse struct {
	Groups []*domain.Group `json:"groups"`
}

// PostDirectMessage appends a message to the 1:1 room shared by the caller
// and :friendId, then notifies the room's subscribers.
func (h *Handlers) PostDirectMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body required")
		return
	}

	m, err := h.messages.SendDirect(userID(c), c.Param("friendId"), req.Body)
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusCreated, PostMessageResponse{Message: m})
}

// ListDirectMessages returns the live messages of the 1:1 room shared by the
// caller and :friendId.
func (h *Handlers) ListDirectMessages(c *gin.Context) {
	msgs := h.messages.ListDirect(userID(c), c.Param("friendId"))
	ok(c, http.StatusOK, ListMessagesResponse{Messages: msgs})
}

// PostGroupMessage appends a message to the :groupId room.
func (h *Handlers) PostGroupMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body required")
		return
	}

	m, err := h.messages.SendGroup(userID(c), c.Param("groupId"), req.Body)
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusCreated, PostMessageResponse{Message: m})
}

// ListGroupMessages returns the live messages of the :groupId room.
func (h *Handlers) ListGroupMessages(c *gin.Context) {
	msgs, err := h.messages.ListGroup(c.Param("groupId"))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: msgs})
}

// ListGroups returns the groups the caller is a member of.
func (h *Handlers) ListGroups(c *gin.Context) {
	groups := h.messages.Groups.ListForUser(userID(c))
	ok(c, http.StatusOK, ListGroupsResponse{Groups: groups})
}

// ReactToMessage applies the reaction toggle policy to message :id on behalf
// of the caller, using the display name carried in the session token.
func (h *Handlers) ReactToMessage(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "emoji required")
		return
	}

	m, err := h.messages.React(c.Param("id"), userID(c), req.Emoji, userName(c))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: m})
}

// MarkMessageRead records a read receipt for message :id. Safe to repeat.
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	m, err := h.messages.MarkRead(c.Param("id"), userID(c))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: m})
}

// WipeMessages removes every 1:1 room the caller participates in and reports
// the count. Group rooms are untouched.
func (h *Handlers) WipeMessages(c *gin.Context) {
	n, err := h.messages.Wipe(userID(c))
	if err != nil {
		h.failMessage(c, err)
		return
	}
	ok(c, http.StatusOK, WipeResponse{RoomsRemoved: n})
}

// failMessage maps message-engine sentinel errors onto the error envelope.
func (h *Handlers) failMessage(c *gin.Context, err error) {
	switch {
	case errors.Is(err, state.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found or expired")
	case errors.Is(err, state.ErrGroupNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "group not found")
	case errors.Is(err, state.ErrEmptyBody), errors.Is(err, state.ErrMissingSender):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
