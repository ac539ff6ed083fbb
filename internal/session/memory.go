package session

import "sync"

// memoryStore implements Store with a process-lifetime map.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]Session),
	}
}

func (m *memoryStore) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}
	return Default()
}

func (m *memoryStore) Set(userID int64, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = s
	return nil
}

func (m *memoryStore) Clear(userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}
