// Friend-graph HTTP handlers.
//
// This file exposes the friend-request handshake and the accepted-friends
// view:
//   - POST /friend-requests               (open a request by friend code, email, or username)
//   - GET  /friend-requests?type=...      (pending requests, incoming or outgoing)
//   - POST /friend-requests/:id/accept
//   - POST /friend-requests/:id/decline
//   - GET  /friends                       (accepted friends resolved to profiles)
//
// The two 409 variants are deliberately distinguishable: already_friends when
// an accepted request links the pair, request_pending when one is still open.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/services"
	"github.com/vanish-chat/vanish-backend/internal/state"
)

// SendFriendRequest is the JSON payload for opening a friend request. The
// identifier may be a friend code, an email, or a username; resolution tries
// them in that order.
type SendFriendRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// FriendRequestResponse wraps a single request.
type FriendRequestResponse struct {
	Request *domain.FriendRequest `json:"request"`
}

// ListRequestsResponse wraps a resolved request listing.
type ListRequestsResponse struct {
	Requests []services.RequestView `json:"requests"`
}

// ListFriendsResponse wraps the accepted-friends view.
type ListFriendsResponse struct {
	Friends []services.FriendProfile `json:"friends"`
}

// PostFriendRequest opens a pending friend request from the caller to the
// user matching the identifier.
func (h *Handlers) PostFriendRequest(c *gin.Context) {
	var req SendFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
		return
	}

	fr, err := h.friends.SendRequest(c.Request.Context(), userID(c), req.Identifier)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no user matches that identifier")
		case errors.Is(err, state.ErrSelfRequest):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot send a friend request to yourself")
		case errors.Is(err, state.ErrAlreadyFriends):
			fail(c, http.StatusConflict, ErrCodeAlreadyFriends, "already friends")
		case errors.Is(err, state.ErrRequestPending):
			fail(c, http.StatusConflict, ErrCodeRequestPending, "request already pending")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, FriendRequestResponse{Request: fr})
}

// ListFriendRequests returns the caller's pending requests. The `type` query
// parameter selects the direction: "incoming" (default) or "outgoing".
func (h *Handlers) ListFriendRequests(c *gin.Context) {
	var (
		views []services.RequestView
		err   error
	)
	switch c.DefaultQuery("type", "incoming") {
	case "incoming":
		views, err = h.friends.ListIncoming(c.Request.Context(), userID(c))
	case "outgoing":
		views, err = h.friends.ListOutgoing(c.Request.Context(), userID(c))
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type must be incoming or outgoing")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{Requests: views})
}

// AcceptFriendRequest transitions a pending request to accepted. Repeating
// the accept is a no-op; accepting a declined request is a conflict.
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	h.transitionRequest(c, h.friends.Accept)
}

// DeclineFriendRequest transitions a pending request to declined.
func (h *Handlers) DeclineFriendRequest(c *gin.Context) {
	h.transitionRequest(c, h.friends.Decline)
}

func (h *Handlers) transitionRequest(c *gin.Context, fn func(string) (*domain.FriendRequest, error)) {
	fr, err := fn(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, state.ErrRequestNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "friend request not found")
		case errors.Is(err, state.ErrRequestClosed):
			fail(c, http.StatusConflict, ErrCodeRequestClosed, "request already settled")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, FriendRequestResponse{Request: fr})
}

// ListFriends returns everyone linked to the caller by an accepted request,
// resolved to public profiles.
func (h *Handlers) ListFriends(c *gin.Context) {
	friends, err := h.friends.Friends(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListFriendsResponse{Friends: friends})
}
