// Package services defines the business logic for accounts, the friend
// graph, and ephemeral messaging. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Engine-level errors (message not found, duplicate friend request, …) are
// defined next to the stores in internal/state; the handler layer maps both
// families into user-facing responses.
package services

import "errors"

var (
	// ErrMissingCaller is returned when an operation that requires a caller
	// identity is invoked without one.
	ErrMissingCaller = errors.New("caller identity required")

	// ErrUserNotFound indicates that no user matches the given id or
	// identifier (friend code, email, username).
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned on signup when the username or email is
	// already taken (compared case-insensitively).
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials is returned on login when the identifier or
	// password does not match. Deliberately does not reveal which.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidResetToken is returned when a password-reset token is
	// unknown or already used.
	ErrInvalidResetToken = errors.New("invalid reset token")

	// ErrMissingFields is returned when a required signup field is blank.
	ErrMissingFields = errors.New("missing required fields")
)
