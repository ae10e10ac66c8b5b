package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory lead/group store for tests and early development.
// It enforces the same ownership and uniqueness rules as the Postgres store.
type MemoryStore struct {
	mu sync.Mutex

	leads  map[string]Lead
	groups map[string]Group

	// membership maps group id to an ordered list of lead ids.
	membership map[string][]string

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:      map[string]Lead{},
		groups:     map[string]Group{},
		membership: map[string][]string{},
		clock:      time.Now,
	}
}

func (s *MemoryStore) AddLead(l Lead) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.leads {
		if existing.UserID == l.UserID && existing.Phone == l.Phone {
			return Lead{}, ErrDuplicatePhone
		}
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	s.leads[l.ID] = l
	return l, nil
}

func (s *MemoryStore) AddGroup(g Group, leadIDs []string) Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	s.groups[g.ID] = g
	s.membership[g.ID] = append([]string(nil), leadIDs...)
	return g
}

// SetMembership replaces a group's ordered membership. Running queues keep
// dialing their creation-time snapshot regardless.
func (s *MemoryStore) SetMembership(groupID string, leadIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.membership[groupID] = append([]string(nil), leadIDs...)
}

func (s *MemoryStore) GetGroupLeadsSnapshot(ctx context.Context, userID, groupID string) ([]QueueLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}

	ids := s.membership[groupID]
	out := make([]QueueLead, 0, len(ids))
	for _, id := range ids {
		l, ok := s.leads[id]
		if !ok {
			continue
		}
		out = append(out, QueueLead{LeadID: l.ID, Name: l.Name, PhoneNumber: l.Phone})
	}
	return out, nil
}

func (s *MemoryStore) GetGroup(ctx context.Context, userID, groupID string) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok || g.UserID != userID {
		return Group{}, ErrNotFound
	}
	return g, nil
}

func (s *MemoryStore) GetLead(ctx context.Context, userID, leadID string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[leadID]
	if !ok || l.UserID != userID {
		return Lead{}, ErrNotFound
	}
	return l, nil
}
