// Account HTTP handlers.
//
// This file exposes the auth surface:
//   - POST   /auth/signup  (register, join default group, issue JWT)
//   - POST   /auth/login   (email or username + password)
//   - POST   /auth/forgot  (mint a single-use password reset token)
//   - POST   /auth/reset   (consume a reset token)
//   - DELETE /auth/delete  (account dissolution: purge the caller everywhere)
//
// Handlers are transport-thin: validate and normalize inputs, delegate to
// AccountService, and map sentinel errors onto the standard envelope.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vanish-chat/vanish-backend/internal/services"
)

// SignupRequest is the JSON payload for registering an account.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest authenticates by email or username plus password.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// ForgotRequest asks for a password reset token.
type ForgotRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// ForgotResponse returns the minted reset token. The original deployment has
// no mail transport; the token travels in the response body.
type ForgotResponse struct {
	ResetToken string `json:"resetToken"`
}

// ResetRequest consumes a reset token and sets a new password.
type ResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a new account and returns a session (JWT + user).
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email and password required")
		return
	}

	sess, err := h.accounts.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email and password required")
		case errors.Is(err, services.ErrUserExists):
			fail(c, http.StatusConflict, ErrCodeUserExists, "username or email already taken")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, sess)
}

// Login authenticates by email or username and returns a session.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier and password required")
		return
	}

	sess, err := h.accounts.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sess)
}

// Forgot mints a single-use password reset token for the account matching
// the identifier.
func (h *Handlers) Forgot(c *gin.Context) {
	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "identifier required")
		return
	}

	token, err := h.accounts.Forgot(c.Request.Context(), req.Identifier)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no account matches that identifier")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ForgotResponse{ResetToken: token})
}

// Reset consumes a reset token and replaces the account password.
func (h *Handlers) Reset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token and password required")
		return
	}

	if err := h.accounts.Reset(c.Request.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetToken):
			fail(c, http.StatusBadRequest, ErrCodeInvalidResetToken, "invalid or already used reset token")
		case errors.Is(err, services.ErrUserNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account no longer exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// DeleteAccount dissolves the authenticated caller: the durable account row
// is removed first, then every in-memory trace (requests, rooms, group
// memberships) is purged atomically. Responds with the cascade summary.
func (h *Handlers) DeleteAccount(c *gin.Context) {
	sum, err := h.accounts.Dissolve(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account no longer exists")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sum)
}
