package session

import (
	"context"
	"time"

	"paychart/internal/cache"
)

// MemoryStore keeps sessions in a size-bounded TTL cache. Reading a
// session does not extend its lifetime; saving does.
type MemoryStore struct {
	items *cache.LRUCache[Session]
}

var (
	_ Store         = (*MemoryStore)(nil)
	_ cache.Cleaner = (*MemoryStore)(nil)
)

// NewMemoryStore creates a store holding at most maxSessions entries.
func NewMemoryStore(maxSessions int, ttl time.Duration, opts ...cache.Option[Session]) *MemoryStore {
	return &MemoryStore{items: cache.NewLRUCache[Session](maxSessions, ttl, opts...)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	s, ok := m.items.Get(id)
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.items.Set(s.ID, s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.items.Delete(id)
	return nil
}

// CleanExpired drops expired sessions and returns how many were removed.
func (m *MemoryStore) CleanExpired() int {
	return m.items.CleanExpired()
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	return m.items.Size()
}
