package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. Everything is lost on
// restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	turns    map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		turns:    make(map[string][]Turn),
	}
}

func (m *MemoryStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.turns[s.ID] = nil
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Append(_ context.Context, t Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[t.SessionID]
	if !ok {
		return ErrNotFound
	}
	s.UpdatedAt = t.CreatedAt
	m.sessions[t.SessionID] = s
	m.turns[t.SessionID] = append(m.turns[t.SessionID], t)
	return nil
}

func (m *MemoryStore) Turns(_ context.Context, id string) ([]Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sessions[id]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Turn, len(m.turns[id]))
	copy(out, m.turns[id])
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.turns, id)
	return nil
}

func (m *MemoryStore) PurgeBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			delete(m.turns, id)
			n++
		}
	}
	return n, nil
}
