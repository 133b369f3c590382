package repository

import (
	"context"
	"sync"

	"github.com/okian/eraquiz/internal/domain/model"
)

// MemoryStore keeps sessions in a map. Values are cloned on the way in and
// out so callers never share an answers map with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]model.Session
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]model.Session)}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return s.Clone(), nil
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, s model.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ID == "" {
		return ErrInvalidSession
	}
	m.mu.Lock()
	m.byID[s.ID] = s.Clone()
	m.mu.Unlock()
	return nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
