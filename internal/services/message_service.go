// MessageService orchestrates the ephemeral message engine: direct and group
// sends, live listings, reaction toggles, read receipts, and chat wipes.
//
// The service is transport-agnostic. Store mutations return the events they
// produced; the service hands them to the configured dispatcher after the
// mutation has committed, so a slow or absent subscriber can never roll back
// state. Methods take no context: the engine performs no I/O and has no
// cancellation contract.
package services

import (
	"github.com/vanish-chat/vanish-backend/internal/domain"
	"github.com/vanish-chat/vanish-backend/internal/events"
	"github.com/vanish-chat/vanish-backend/internal/state"
)

// MessageService provides message-level operations over the in-memory
// engine. Dispatch may be nil; events are then dropped.
type MessageService struct {
	// Store is the message engine.
	Store *state.MessageStore
	// Groups resolves group rooms for group sends.
	Groups *state.GroupStore
	// Dispatch fans mutation events out to subscribers.
	Dispatch events.Dispatcher
}

// NewMessageService constructs a MessageService bound to the engine stores.
func NewMessageService(st *state.MessageStore, groups *state.GroupStore, d events.Dispatcher) *MessageService {
	if d == nil {
		d = events.Discard
	}
	return &MessageService{Store: st, Groups: groups, Dispatch: d}
}

// SendDirect appends a message to the 1:1 room of (senderID, friendID) and
// notifies the room's subscribers.
func (s *MessageService) SendDirect(senderID, friendID, body string) (*domain.Message, error) {
	if senderID == "" {
		return nil, ErrMissingCaller
	}
	m, evs, err := s.Store.Append(domain.RoomKey(senderID, friendID), senderID, body)
	if err != nil {
		return nil, err
	}
	s.emit(evs)
	return m, nil
}

// ListDirect returns the live messages of the 1:1 room of (userID, friendID)
// in insertion order.
func (s *MessageService) ListDirect(userID, friendID string) []*domain.Message {
	return s.Store.ListLive(domain.RoomKey(userID, friendID))
}

// SendGroup appends a message to a group room. The group must exist; unlike
// direct rooms, group rooms are not derived on the fly.
func (s *MessageService) SendGroup(senderID, groupID, body string) (*domain.Message, error) {
	if senderID == "" {
		return nil, ErrMissingCaller
	}
	if _, err := s.Groups.Get(groupID); err != nil {
		return nil, err
	}
	m, evs, err := s.Store.Append(domain.GroupRoomKey(groupID), senderID, body)
	if err != nil {
		return nil, err
	}
	s.emit(evs)
	return m, nil
}

// ListGroup returns the live messages of a group room.
func (s *MessageService) ListGroup(groupID string) ([]*domain.Message, error) {
	if _, err := s.Groups.Get(groupID); err != nil {
		return nil, err
	}
	return s.Store.ListLive(domain.GroupRoomKey(groupID)), nil
}

// React applies the single-reaction-per-user toggle policy to a message and
// notifies the message's room.
func (s *MessageService) React(messageID, userID, emoji, userName string) (*domain.Message, error) {
	if userID == "" {
		return nil, ErrMissingCaller
	}
	m, evs, err := s.Store.React(messageID, userID, emoji, userName)
	if err != nil {
		return nil, err
	}
	s.emit(evs)
	return m, nil
}

// MarkRead records a read receipt. Idempotent; a repeat call emits nothing.
func (s *MessageService) MarkRead(messageID, userID string) (*domain.Message, error) {
	if userID == "" {
		return nil, ErrMissingCaller
	}
	m, evs, err := s.Store.MarkRead(messageID, userID)
	if err != nil {
		return nil, err
	}
	s.emit(evs)
	return m, nil
}

// Wipe removes every 1:1 room involving userID and returns how many rooms
// were deleted.
func (s *MessageService) Wipe(userID string) (int, error) {
	if userID == "" {
		return 0, ErrMissingCaller
	}
	return s.Store.WipeForUser(userID), nil
}

func (s *MessageService) emit(evs []events.Event) {
	for _, ev := range evs {
		s.Dispatch.Dispatch(ev)
	}
}
