// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes give clients
// a stable, machine-readable error taxonomy that supplements human-readable
// messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (bad_request, unauthorized, conflict, ...) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes distinguish business conflicts the status alone
//     cannot (already_friends vs request_pending are both 409s, but clients
//     render them differently).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeUserExists         = "user_exists"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInvalidResetToken  = "invalid_reset_token"
	ErrCodeAlreadyFriends     = "already_friends"
	ErrCodeRequestPending     = "request_pending"
	ErrCodeRequestClosed      = "request_closed"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
