// AccountService owns the account lifecycle: signup, login, password
// recovery, and dissolution. Accounts are the durable edge of the system;
// everything an account touches in the engine (rooms, requests, group
// memberships) is removed in one cascade when the account dissolves.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/repo"
	"github.com/vanish-chat/vanish-backend/internal/state"
)

// DefaultGroupID is the group every new account joins.
const DefaultGroupID = "general"

// AccountService provides account operations. Reset tokens are held in
// memory and are single use; they do not survive a restart, which is
// acceptable for a flow whose messages also do not.
type AccountService struct {
	DB     *gorm.DB
	Engine *state.Engine

	// JWTSecret signs session tokens; TokenTTL bounds their lifetime.
	JWTSecret string
	TokenTTL  time.Duration

	mu          sync.Mutex
	resetTokens map[string]string // token -> user id
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, eng *state.Engine, jwtSecret string, tokenTTL time.Duration) *AccountService {
	return &AccountService{
		DB:          db,
		Engine:      eng,
		JWTSecret:   jwtSecret,
		TokenTTL:    tokenTTL,
		resetTokens: make(map[string]string),
	}
}

// Session is the result of a successful signup or login.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup registers a new account, generates its friend code, joins it to the
// default group, and returns a session. Fails with ErrMissingFields on blank
// input and ErrUserExists when the username or email is taken.
func (s *AccountService) Signup(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	taken, err := repo.IdentityTaken(ctx, s.DB, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FriendCode:   GenerateFriendCode(),
		PasswordHash: string(hash),
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		return nil, err
	}

	// Membership is best effort; the group may have been removed.
	_ = s.Engine.Groups.AddMember(DefaultGroupID, u.ID)

	return s.session(u)
}

// Login authenticates by email or username (case-insensitive) and password.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	u, err := repo.FindByLogin(ctx, s.DB, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Forgot issues a single-use password-reset token for the account matching
// identifier. The token is returned to the caller; a real deployment would
// deliver it out of band instead.
func (s *AccountService) Forgot(ctx context.Context, identifier string) (string, error) {
	u, err := repo.FindByLogin(ctx, s.DB, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.resetTokens[token] = u.ID
	s.mu.Unlock()
	return token, nil
}

// Reset consumes a reset token and replaces the account password. The token
// is invalidated whether or not the update succeeds downstream of lookup.
func (s *AccountService) Reset(ctx context.Context, token, password string) error {
	if password == "" {
		return ErrMissingFields
	}

	s.mu.Lock()
	userID, ok := s.resetTokens[token]
	if ok {
		delete(s.resetTokens, token)
	}
	s.mu.Unlock()
	if !ok {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := repo.UpdatePassword(ctx, s.DB, userID, string(hash)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// DissolutionSummary reports what Dissolve removed.
type DissolutionSummary struct {
	Requests int `json:"requestsRemoved"`
	Rooms    int `json:"roomsRemoved"`
	Groups   int `json:"groupsLeft"`
}

// Dissolve removes the account and cascades through the engine: every friend
// request touching the user, every 1:1 room keyed with the user, and all
// group memberships. The account row is removed first; if that fails,
// nothing else is touched.
func (s *AccountService) Dissolve(ctx context.Context, userID string) (*DissolutionSummary, error) {
	if userID == "" {
		return nil, ErrMissingCaller
	}
	if err := repo.DeleteUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	res := s.Engine.DissolveUser(userID)

	// Invalidate any outstanding reset tokens for the account.
	s.mu.Lock()
	for tok, uid := range s.resetTokens {
		if uid == userID {
			delete(s.resetTokens, tok)
		}
	}
	s.mu.Unlock()

	return &DissolutionSummary{
		Requests: res.Requests,
		Rooms:    res.Rooms,
		Groups:   res.Groups,
	}, nil
}

func (s *AccountService) session(u *domain.User) (*Session, error) {
	token, err := IssueToken(s.JWTSecret, u, s.TokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// GenerateFriendCode returns a shareable NNNN-NNNN-NNNN code. Uniqueness is
// enforced by the users table; the keyspace makes collisions negligible.
func GenerateFriendCode() string {
	segment := func() int64 {
		n, err := rand.Int(rand.Reader, big.NewInt(9000))
		if err != nil {
			// crypto/rand failing is unrecoverable for account creation
			panic(err)
		}
		return n.Int64() + 1000
	}
	return fmt.Sprintf("%d-%d-%d", segment(), segment(), segment())
}
