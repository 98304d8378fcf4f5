// Session tokens. The auth collaborator hands the engine an authenticated
// user id and display name per request; this file implements that handshake
// as short-lived HS256 JWTs so the HTTP and websocket layers can share one
// verification path.
package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vanish-chat/vanish-backend/internal/domain"
)

// Claims is the JWT payload carried by session tokens. UserName travels in
// the token so typing relays and reactions can use a display name without a
// DB round trip.
type Claims struct {
	UserName string `json:"name"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the user with the given lifetime.
func IssueToken(secret string, u *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserName: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies a session token and returns its claims. Only HS256 is
// accepted.
func ParseToken(secret, token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
