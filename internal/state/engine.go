// Engine aggregates the in-memory stores behind one serialization point.
//
// Every mutating operation across the stores is applied as an atomic,
// serialized step: the stores share the engine's RWMutex, so no operation
// observes a half-applied mutation from another, and the dissolution
// cascade — which touches all three stores — runs under a single write-lock
// acquisition.
package state

import (
	"sync"
	"time"
)

// Engine is the single logical owner of all mutable conversation state in a
// deployment instance. Construct one per process.
type Engine struct {
	mu sync.RWMutex

	Messages *MessageStore
	Friends  *FriendStore
	Groups   *GroupStore
}

// NewEngine constructs an Engine whose message store uses the given TTL.
func NewEngine(ttl time.Duration) *Engine {
	e := &Engine{}
	e.Messages = NewMessageStore(&e.mu, ttl)
	e.Friends = NewFriendStore(&e.mu)
	e.Groups = NewGroupStore(&e.mu)
	return e
}

// DissolutionResult reports what a dissolution cascade removed.
type DissolutionResult struct {
	Requests int // friend requests deleted
	Rooms    int // direct rooms deleted
	Groups   int // group memberships removed
}

// DissolveUser removes every trace of userID from the engine: all friend
// requests touching the user, all direct rooms keyed with the user, and the
// user's group memberships. The cascade holds the write lock throughout, so
// a concurrent reader sees either all of it or none of it.
func (e *Engine) DissolveUser(userID string) DissolutionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	return DissolutionResult{
		Requests: e.Friends.removeUserLocked(userID),
		Rooms:    e.Messages.wipeForUserLocked(userID),
		Groups:   e.Groups.removeUserLocked(userID),
	}
}
