// Group membership. Groups are long-lived named rooms with an explicit
// member list; their room keys live in the group: namespace and are never
// derived from member ids.
package state

import (
	"sync"

	"github.com/vanish-chat/vanish-backend/internal/domain"
)

// GroupStore owns group definitions and membership. The mutex is shared with
// the other engine stores; see MessageStore for the rationale.
type GroupStore struct {
	mu *sync.RWMutex

	byID  map[string]*domain.Group
	order []string
}

// NewGroupStore constructs an empty GroupStore using the shared lock.
func NewGroupStore(mu *sync.RWMutex) *GroupStore {
	return &GroupStore{
		mu:   mu,
		byID: make(map[string]*domain.Group),
	}
}

// Put creates or replaces a group definition.
func (s *GroupStore) Put(g *domain.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[g.ID]; !ok {
		s.order = append(s.order, g.ID)
	}
	cp := copyGroup(g)
	s.byID[g.ID] = cp
}

// Get returns the group with the given id or ErrGroupNotFound.
func (s *GroupStore) Get(groupID string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.byID[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return copyGroup(g), nil
}

// ListForUser returns the groups userID belongs to, in creation order.
func (s *GroupStore) ListForUser(userID string) []*domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Group
	for _, id := range s.order {
		g := s.byID[id]
		if g.HasMember(userID) {
			out = append(out, copyGroup(g))
		}
	}
	return out
}

// AddMember adds userID to the group's member list. Idempotent.
func (s *GroupStore) AddMember(groupID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.byID[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	if !g.HasMember(userID) {
		g.Members = append(g.Members, userID)
	}
	return nil
}

// RemoveUser strips userID from every member list and returns the number of
// groups affected. Empty groups are kept; they are cheap and may be
// rejoined.
func (s *GroupStore) RemoveUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeUserLocked(userID)
}

// removeUserLocked is shared with the dissolution path that already holds
// the engine lock.
func (s *GroupStore) removeUserLocked(userID string) int {
	n := 0
	for _, id := range s.order {
		g := s.byID[id]
		kept := g.Members[:0]
		removed := false
		for _, m := range g.Members {
			if m == userID {
				removed = true
				continue
			}
			kept = append(kept, m)
		}
		g.Members = kept
		if removed {
			n++
		}
	}
	return n
}

func copyGroup(g *domain.Group) *domain.Group {
	out := *g
	out.Members = append([]string(nil), g.Members...)
	return &out
}
