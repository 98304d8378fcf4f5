// Package events defines the closed set of room-scoped events the engine
// emits and the Dispatcher contract that delivers them. State mutation and
// notification are kept separate: stores return the events a mutation
// produced, and a thin dispatcher performs the actual fan-out. Delivery is
// fire-and-forget; a failed or dropped delivery never rolls back state.
package events

import "github.com/vanish-chat/vanish-backend/internal/domain"

// Event type names as they appear on the wire.
const (
	TypeMessageNew      = "message:new"
	TypeMessageReaction = "message:reaction"
	TypeMessageRead     = "message:read"
	TypeTypingStart     = "typing:start"
	TypeTypingStop      = "typing:stop"
)

// Event is one room-scoped notification. Data is always one of the payload
// types below, matching Type.
type Event struct {
	// Room is the fan-out scope (a room key).
	Room string `json:"-"`
	// Type is one of the Type* constants.
	Type string `json:"type"`
	// Data is the typed payload.
	Data any `json:"data"`
}

// MessageNew carries a freshly appended message.
type MessageNew struct {
	ChatID  string          `json:"chatId"`
	Message *domain.Message `json:"message"`
}

// MessageReaction carries the raw toggle action, not the resulting reaction
// list; clients reconcile locally.
type MessageReaction struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
}

// MessageRead marks a message as seen by a user.
type MessageRead struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// TypingStart is an ephemeral relay; no state is retained server-side.
type TypingStart struct {
	ChatID   string `json:"chatId"`
	UserName string `json:"userName"`
}

// TypingStop is the ephemeral counterpart of TypingStart.
type TypingStop struct {
	ChatID string `json:"chatId"`
}

// NewMessage builds a message:new event for room.
func NewMessage(room string, m *domain.Message) Event {
	return Event{Room: room, Type: TypeMessageNew, Data: MessageNew{ChatID: room, Message: m}}
}

// NewReaction builds a message:reaction event for room.
func NewReaction(room, messageID, emoji, userID string) Event {
	return Event{Room: room, Type: TypeMessageReaction, Data: MessageReaction{MessageID: messageID, Emoji: emoji, UserID: userID}}
}

// NewRead builds a message:read event for room.
func NewRead(room, messageID, userID string) Event {
	return Event{Room: room, Type: TypeMessageRead, Data: MessageRead{MessageID: messageID, UserID: userID}}
}

// Dispatcher fans an event out to all subscribers of its room. Delivery is
// best effort and at most once; implementations must not block the caller.
type Dispatcher interface {
	Dispatch(ev Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ev Event)

// Dispatch calls f(ev).
func (f DispatcherFunc) Dispatch(ev Event) { f(ev) }

// Discard is a Dispatcher that drops every event. Useful in tests and for
// contexts where no transport is attached.
var Discard Dispatcher = DispatcherFunc(func(Event) {})
