// FriendService drives the friend-request handshake that gates who may
// message whom. It resolves human-facing identifiers (friend code, email,
// username) to users, delegates lifecycle transitions to the friend store,
// and decorates listings with counterpart display names for the UI.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/repo"
	"github.com/vanish-chat/vanish-backend/internal/state"
)

// RequestView is a friend request resolved for display: each side carries
// the counterpart's username, with "You" standing in for the caller, the
// same shape the original client renders.
type RequestView struct {
	ID         string               `json:"id"`
	FromUserID string               `json:"fromUserId"`
	FromUser   string               `json:"fromUser"`
	ToUserID   string               `json:"toUserId"`
	ToUser     string               `json:"toUser"`
	Status     domain.RequestStatus `json:"status"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// FriendProfile is the public slice of a user returned by friend listings.
type FriendProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FriendCode string `json:"friendCode"`
}

// FriendService provides friend-graph operations. DB is used only to
// resolve user identifiers and display names; the request state itself
// lives in the in-memory store.
type FriendService struct {
	DB       *gorm.DB
	Requests *state.FriendStore
}

// NewFriendService constructs a FriendService.
func NewFriendService(db *gorm.DB, requests *state.FriendStore) *FriendService {
	return &FriendService{DB: db, Requests: requests}
}

// SendRequest resolves toIdentifier (friend code, email, or username) and
// opens a pending request from the caller. Fails with ErrUserNotFound when
// nothing matches, state.ErrSelfRequest when the target is the caller, and
// state.ErrAlreadyFriends / state.ErrRequestPending when an active request
// already links the pair.
func (s *FriendService) SendRequest(ctx context.Context, fromUserID, toIdentifier string) (*domain.FriendRequest, error) {
	if fromUserID == "" {
		return nil, ErrMissingCaller
	}
	target, err := repo.FindByIdentifier(ctx, s.DB, toIdentifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Requests.Create(fromUserID, target.ID)
}

// Accept transitions a pending request to accepted.
func (s *FriendService) Accept(requestID string) (*domain.FriendRequest, error) {
	return s.Requests.Accept(requestID)
}

// Decline transitions a pending request to declined.
func (s *FriendService) Decline(requestID string) (*domain.FriendRequest, error) {
	return s.Requests.Decline(requestID)
}

// ListIncoming returns the pending requests addressed to userID, resolved
// with the sender's display name.
func (s *FriendService) ListIncoming(ctx context.Context, userID string) ([]RequestView, error) {
	return s.resolve(ctx, userID, s.Requests.Incoming(userID))
}

// ListOutgoing returns the pending requests sent by userID, resolved with
// the recipient's display name.
func (s *FriendService) ListOutgoing(ctx context.Context, userID string) ([]RequestView, error) {
	return s.resolve(ctx, userID, s.Requests.Outgoing(userID))
}

// Friends returns the profiles of everyone linked to userID by an accepted
// request, in request order. Users deleted since acceptance are skipped.
func (s *FriendService) Friends(ctx context.Context, userID string) ([]FriendProfile, error) {
	ids := s.Requests.FriendsOf(userID)
	users, err := repo.ListUsersByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	out := make([]FriendProfile, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, FriendProfile{
			ID:         u.ID,
			Username:   u.Username,
			Email:      u.Email,
			FriendCode: u.FriendCode,
		})
	}
	return out, nil
}

// AreFriends reports whether an accepted request links the two users.
func (s *FriendService) AreFriends(a, b string) bool {
	return s.Requests.AreFriends(a, b)
}

func (s *FriendService) resolve(ctx context.Context, callerID string, reqs []*domain.FriendRequest) ([]RequestView, error) {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.Counterpart(callerID))
	}
	users, err := repo.ListUsersByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	name := func(id string) string {
		if id == callerID {
			return "You"
		}
		if n, ok := names[id]; ok {
			return n
		}
		return "Unknown"
	}

	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, RequestView{
			ID:         r.ID,
			FromUserID: r.FromUserID,
			FromUser:   name(r.FromUserID),
			ToUserID:   r.ToUserID,
			ToUser:     name(r.ToUserID),
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}
