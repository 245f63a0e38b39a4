package session

import (
	"context"
	"sync"
	"time"
)

type pairKey struct {
	userID int64
	chatID int64
}

// MemoryStore is an in-memory Store implementation for tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[pairKey]*Session
	now      func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[pairKey]*Session),
		now:      time.Now,
	}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, userID, chatID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[pairKey{userID, chatID}]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// Save implements Store with the same supersede/optimistic semantics as
// the Postgres store.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{s.UserID, s.ChatID}
	now := m.now().UTC()
	ttl := s.ExpiresAt.Sub(s.UpdatedAt)

	stored, exists := m.sessions[key]
	if s.Version != 0 {
		if !exists || stored.Version != s.Version {
			return ErrStale
		}
	}

	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
	if exists {
		s.Version = stored.Version + 1
	} else {
		s.Version++
	}
	m.sessions[key] = s.clone()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, userID, chatID int64, opts DeleteOptions) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{userID, chatID}
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.sessions, key)
	if !opts.DropMessages {
		return nil, nil
	}
	tracked := append([]int(nil), s.Messages...)
	return filterNotice(tracked, s.NoticeMessageID, opts.KeepNotice), nil
}

// ExpireAll implements Store.
func (m *MemoryStore) ExpireAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	removed := 0
	for key, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are stored; used by tests.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
