// Package domain defines the core data model of the messaging engine:
// durable user accounts (mapped with GORM) and the in-memory conversation
// state (messages, reactions, read receipts, friend requests, groups) that
// is deliberately not persisted — messages are meant to vanish.
package domain

import "time"

// MessageTTL is the fixed lifetime of every message. A message is live while
// now < ExpiresAt and is excluded from all reads afterwards.
const MessageTTL = 2 * time.Hour

// User is the only durable entity. Username and email are unique
// case-insensitively; UsernameKey/EmailKey hold the case-folded forms the
// unique indexes are built on. FriendCode is the shareable identifier used
// to target friend requests without exposing internal ids.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username"   gorm:"type:varchar(64);not null"`
	UsernameKey  string    `json:"-"          gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username_key"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null"`
	EmailKey     string    `json:"-"          gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email_key"`
	FriendCode   string    `json:"friendCode" gorm:"type:varchar(20);not null;uniqueIndex:ux_users_friend_code"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// RequestStatus is the lifecycle state of a FriendRequest.
type RequestStatus string

// Friend request states. Pending is the only state with outgoing
// transitions; accepted and declined are terminal.
const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Active reports whether the request blocks a new request between the same
// pair. Declined requests do not block.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestAccepted
}

// FriendRequest is one edge of the social graph handshake. At most one
// active (pending or accepted) request exists per unordered user pair.
type FriendRequest struct {
	ID         string        `json:"id"`
	FromUserID string        `json:"fromUserId"`
	ToUserID   string        `json:"toUserId"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Involves reports whether userID is either party of the request.
func (r *FriendRequest) Involves(userID string) bool {
	return r.FromUserID == userID || r.ToUserID == userID
}

// Counterpart returns the other party relative to userID.
func (r *FriendRequest) Counterpart(userID string) string {
	if r.FromUserID == userID {
		return r.ToUserID
	}
	return r.FromUserID
}

// Reaction is a single user's emoji on a message. At most one reaction per
// (message, user) pair; reacting again toggles or replaces it in place.
type Reaction struct {
	Emoji    string `json:"emoji"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// Message is a short-lived utterance in a room. Reactions and ReadBy are
// mutated in place; everything else is immutable after creation.
type Message struct {
	ID        string     `json:"id"`
	Sender    string     `json:"sender"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Reactions []Reaction `json:"reactions"`
	ReadBy    []string   `json:"readBy"`
}

// Live reports whether the message is still visible at the given instant.
func (m *Message) Live(now time.Time) bool { return now.Before(m.ExpiresAt) }

// Group is a named multi-member conversation. Group rooms use their own key
// namespace and are not derived from member ids.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// HasMember reports whether userID is in the member list.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
