package inmemory

import (
	"context"
	"sync"

	"github.com/dvloznov/ledgerchat/internal/quota"
)

// Store is an in-memory implementation of quota.RecordStore. It is safe for
// concurrent use. Data is lost on restart - for persistence, use the SQLite
// store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements quota.RecordStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}

	// Return a copy to avoid external modifications
	cp := make([]byte, len(d))
	copy(cp, d)
	return cp, true, nil
}

// Set implements quota.RecordStore.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[key] = cp
	return nil
}

// Clear implements quota.RecordStore.
func (s *Store) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Ensure Store implements the RecordStore interface.
var _ quota.RecordStore = (*Store)(nil)
