// Message store: per-room ordered logs with a rolling TTL.
//
// Expiry is evaluated lazily at read time; no background sweep is required
// for correctness. Sweep exists only to reclaim memory and may be driven by
// an optional ticker in the process entrypoint.
//
// Mutations return the events they produced instead of broadcasting them;
// the caller hands those to a dispatcher after the lock is released. All
// returned messages are deep copies so readers never observe an in-place
// reaction or read-receipt mutation mid-flight.
package state

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vanish-chat/vanish-backend/internal/domain"

	"github.com/vanish-chat/vanish-backend/internal/events"
)

// MessageStore owns every message in the process. It is keyed by room key
// (see domain.RoomKey) and safe for concurrent use; the mutex is injected so
// that all engine stores can share one serialization point, which keeps
// cross-store cascades (account dissolution) atomic for readers.
type MessageStore struct {
	mu  *sync.RWMutex
	ttl time.Duration

	rooms map[string][]*domain.Message

	// lastID makes message ids strictly monotonic even when two appends
	// land in the same millisecond.
	lastID int64

	// now is a test seam.
	now func() time.Time
}

// NewMessageStore constructs a MessageStore with the given shared lock and
// message TTL. A non-positive ttl falls back to domain.MessageTTL.
func NewMessageStore(mu *sync.RWMutex, ttl time.Duration) *MessageStore {
	if ttl <= 0 {
		ttl = domain.MessageTTL
	}
	return &MessageStore{
		mu:    mu,
		ttl:   ttl,
		rooms: make(map[string][]*domain.Message),
		now:   time.Now,
	}
}

// Append validates and stores a new message in roomKey and returns the
// stored message plus the message:new event to dispatch. The body must be
// non-blank and the sender non-empty; a failed append leaves the store
// untouched.
func (s *MessageStore) Append(roomKey, sender, body string) (*domain.Message, []events.Event, error) {
	if strings.TrimSpace(sender) == "" {
		return nil, nil, ErrMissingSender
	}
	if strings.TrimSpace(body) == "" {
		return nil, nil, ErrEmptyBody
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	m := &domain.Message{
		ID:        s.nextID(now),
		Sender:    sender,
		Body:      body,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Reactions: []domain.Reaction{},
		ReadBy:    []string{},
	}
	s.rooms[roomKey] = append(s.rooms[roomKey], m)

	out := cloneMessage(m)
	return out, []events.Event{events.NewMessage(roomKey, out)}, nil
}

// ListLive returns the room's messages in insertion order, excluding any
// whose ExpiresAt has passed. The filter is re-evaluated on every call.
func (s *MessageStore) ListLive(roomKey string) []*domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]*domain.Message, 0, len(s.rooms[roomKey]))
	for _, m := range s.rooms[roomKey] {
		if m.Live(now) {
			out = append(out, cloneMessage(m))
		}
	}
	return out
}

// FindByID scans all rooms for a message. Message ids are global, so callers
// do not need to know the room up front. Returns the message and its room
// key, or ErrMessageNotFound.
func (s *MessageStore) FindByID(messageID string) (*domain.Message, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, room := s.locate(messageID)
	if m == nil {
		return nil, "", ErrMessageNotFound
	}
	return cloneMessage(m), room, nil
}

// React applies the single-reaction-per-user toggle policy:
//
//  1. no existing reaction from userID: append one
//  2. same emoji as the existing one: remove it
//  3. different emoji: replace in place, preserving order
//
// It returns the updated message and a message:reaction event carrying the
// raw toggle action.
func (s *MessageStore) React(messageID, userID, emoji, userName string) (*domain.Message, []events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, room := s.locate(messageID)
	if m == nil {
		return nil, nil, ErrMessageNotFound
	}

	idx := -1
	for i, r := range m.Reactions {
		if r.UserID == userID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		m.Reactions = append(m.Reactions, domain.Reaction{Emoji: emoji, UserID: userID, UserName: userName})
	case m.Reactions[idx].Emoji == emoji:
		m.Reactions = append(m.Reactions[:idx], m.Reactions[idx+1:]...)
	default:
		m.Reactions[idx].Emoji = emoji
	}

	return cloneMessage(m), []events.Event{events.NewReaction(room, m.ID, emoji, userID)}, nil
}

// MarkRead records that userID has seen the message. Idempotent: a repeat
// call neither duplicates the set entry nor emits a second event.
func (s *MessageStore) MarkRead(messageID, userID string) (*domain.Message, []events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, room := s.locate(messageID)
	if m == nil {
		return nil, nil, ErrMessageNotFound
	}
	for _, id := range m.ReadBy {
		if id == userID {
			return cloneMessage(m), nil, nil
		}
	}
	m.ReadBy = append(m.ReadBy, userID)

	return cloneMessage(m), []events.Event{events.NewRead(room, m.ID, userID)}, nil
}

// WipeForUser deletes every direct room whose pair includes userID and
// returns the number of rooms removed. Group rooms are untouched.
func (s *MessageStore) WipeForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wipeForUserLocked(userID)
}

// wipeForUserLocked is the lock-free body of WipeForUser, shared with the
// dissolution path that already holds the engine lock.
func (s *MessageStore) wipeForUserLocked(userID string) int {
	n := 0
	for key := range s.rooms {
		if domain.RoomHasUser(key, userID) {
			delete(s.rooms, key)
			n++
		}
	}
	return n
}

// Sweep drops expired messages and empty rooms, returning the number of
// messages reclaimed. Purely a memory optimization; reads filter lazily
// regardless.
func (s *MessageStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for key, list := range s.rooms {
		kept := list[:0]
		for _, m := range list {
			if m.Live(now) {
				kept = append(kept, m)
			} else {
				n++
			}
		}
		if len(kept) == 0 {
			delete(s.rooms, key)
			continue
		}
		s.rooms[key] = kept
	}
	return n
}

// locate finds a message across all rooms. Caller must hold the lock.
func (s *MessageStore) locate(messageID string) (*domain.Message, string) {
	for key, list := range s.rooms {
		for _, m := range list {
			if m.ID == messageID {
				return m, key
			}
		}
	}
	return nil, ""
}

// nextID returns a millisecond timestamp id, bumped past the previous id
// when two appends share a millisecond.
func (s *MessageStore) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// cloneMessage deep-copies m so callers can marshal it outside the lock.
// Empty slices stay non-nil so reactions and readBy always marshal as [].
func cloneMessage(m *domain.Message) *domain.Message {
	out := *m
	out.Reactions = append([]domain.Reaction{}, m.Reactions...)
	out.ReadBy = append([]string{}, m.ReadBy...)
	return &out
}
