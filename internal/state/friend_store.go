// Friend graph: friend-request lifecycle and the derived friendship view.
//
// State machine per request: pending --accept--> accepted and
// pending --decline--> declined. Terminal states admit no transitions except
// deletion during account dissolution; repeating the transition that led to
// a terminal state is an idempotent no-op, while a conflicting transition is
// rejected with ErrRequestClosed.
package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanish-chat/vanish-backend/internal/domain"
)

// FriendStore owns every friend request in the process. Insertion order is
// preserved for listing. The mutex is shared with the other engine stores;
// see MessageStore for the rationale.
type FriendStore struct {
	mu *sync.RWMutex

	byID  map[string]*domain.FriendRequest
	order []string

	// now is a test seam.
	now func() time.Time
	// newID is a test seam; defaults to uuid.NewString.
	newID func() string
}

// NewFriendStore constructs an empty FriendStore using the shared lock.
func NewFriendStore(mu *sync.RWMutex) *FriendStore {
	return &FriendStore{
		mu:    mu,
		byID:  make(map[string]*domain.FriendRequest),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create opens a pending request from fromUserID to toUserID. It fails with
// ErrSelfRequest when the two are equal, ErrAlreadyFriends when an accepted
// request links the pair, and ErrRequestPending when a pending one exists in
// either direction. Declined requests do not block a new request.
func (s *FriendStore) Create(fromUserID, toUserID string) (*domain.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrSelfRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.activeBetweenLocked(fromUserID, toUserID); r != nil {
		if r.Status == domain.RequestAccepted {
			return nil, ErrAlreadyFriends
		}
		return nil, ErrRequestPending
	}

	r := &domain.FriendRequest{
		ID:         s.newID(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     domain.RequestPending,
		CreatedAt:  s.now().UTC(),
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	return copyRequest(r), nil
}

// Accept transitions a pending request to accepted. Re-accepting an accepted
// request is a harmless no-op; accepting a declined one fails with
// ErrRequestClosed.
func (s *FriendStore) Accept(requestID string) (*domain.FriendRequest, error) {
	return s.transition(requestID, domain.RequestAccepted)
}

// Decline transitions a pending request to declined. Re-declining is a
// no-op; declining an accepted request fails with ErrRequestClosed.
func (s *FriendStore) Decline(requestID string) (*domain.FriendRequest, error) {
	return s.transition(requestID, domain.RequestDeclined)
}

func (s *FriendStore) transition(requestID string, to domain.RequestStatus) (*domain.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	switch r.Status {
	case domain.RequestPending:
		r.Status = to
	case to:
		// idempotent repeat
	default:
		return nil, ErrRequestClosed
	}
	return copyRequest(r), nil
}

// Incoming returns the pending requests addressed to userID, oldest first.
func (s *FriendStore) Incoming(userID string) []*domain.FriendRequest {
	return s.pending(func(r *domain.FriendRequest) bool { return r.ToUserID == userID })
}

// Outgoing returns the pending requests sent by userID, oldest first.
func (s *FriendStore) Outgoing(userID string) []*domain.FriendRequest {
	return s.pending(func(r *domain.FriendRequest) bool { return r.FromUserID == userID })
}

func (s *FriendStore) pending(match func(*domain.FriendRequest) bool) []*domain.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.FriendRequest
	for _, id := range s.order {
		r := s.byID[id]
		if r.Status == domain.RequestPending && match(r) {
			out = append(out, copyRequest(r))
		}
	}
	return out
}

// FriendsOf returns the ids of everyone linked to userID by an accepted
// request, in request insertion order.
func (s *FriendStore) FriendsOf(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	seen := make(map[string]struct{})
	for _, id := range s.order {
		r := s.byID[id]
		if r.Status != domain.RequestAccepted || !r.Involves(userID) {
			continue
		}
		other := r.Counterpart(userID)
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out
}

// AreFriends reports whether an accepted request links a and b.
func (s *FriendStore) AreFriends(a, b string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.activeBetweenLocked(a, b)
	return r != nil && r.Status == domain.RequestAccepted
}

// RemoveUser deletes every request where userID is either party and returns
// the number removed.
func (s *FriendStore) RemoveUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeUserLocked(userID)
}

// removeUserLocked is shared with the dissolution path that already holds
// the engine lock.
func (s *FriendStore) removeUserLocked(userID string) int {
	n := 0
	kept := s.order[:0]
	for _, id := range s.order {
		r := s.byID[id]
		if r.Involves(userID) {
			delete(s.byID, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return n
}

// activeBetweenLocked returns the pending or accepted request between the
// unordered pair, if any. Caller must hold the lock.
func (s *FriendStore) activeBetweenLocked(a, b string) *domain.FriendRequest {
	for _, id := range s.order {
		r := s.byID[id]
		if !r.Status.Active() {
			continue
		}
		if (r.FromUserID == a && r.ToUserID == b) || (r.FromUserID == b && r.ToUserID == a) {
			return r
		}
	}
	return nil
}

func copyRequest(r *domain.FriendRequest) *domain.FriendRequest {
	out := *r
	return &out
}
