// Package state implements the in-memory engine stores: the per-room message
// log with rolling expiry, the friend-request graph, and group membership.
// This file centralizes the sentinel errors the stores return so callers can
// branch with errors.Is and translate them into user-facing results at the
// handler layer.
package state

import "errors"

// Message store errors.
var (
	// ErrMessageNotFound indicates that no live or expired message with the
	// given id exists in any room.
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyBody is returned when a message body is empty or whitespace.
	ErrEmptyBody = errors.New("message body is empty")

	// ErrMissingSender is returned when an append lacks a sender identity.
	ErrMissingSender = errors.New("sender is required")
)

// Friend graph errors.
var (
	// ErrRequestNotFound indicates that the friend request does not exist.
	ErrRequestNotFound = errors.New("friend request not found")

	// ErrSelfRequest is returned when a user targets themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")

	// ErrAlreadyFriends is returned when an accepted request already links
	// the pair. Kept distinct from ErrRequestPending so the UI can tell the
	// two conflict cases apart.
	ErrAlreadyFriends = errors.New("already friends")

	// ErrRequestPending is returned when a pending request already exists
	// between the pair, in either direction.
	ErrRequestPending = errors.New("friend request already pending")

	// ErrRequestClosed is returned for a conflicting transition out of a
	// terminal state, e.g. accepting a declined request.
	ErrRequestClosed = errors.New("friend request already resolved")
)

// Group store errors.
var (
	// ErrGroupNotFound indicates that the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
)
