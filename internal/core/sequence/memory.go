package sequence

import (
	"context"
	"sort"
	"sync"
)

// MemStore is a threadsafe in-memory Store. It backs unit tests and the
// "memory" storage backend used for demos; nothing survives a restart.
type MemStore struct {
	mu      sync.RWMutex
	records map[Key]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[Key]Record)}
}

// Ensure compile-time interface compliance.
var _ Store = (*MemStore)(nil)

// Get implements Store.
func (s *MemStore) Get(_ context.Context, key Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// Put implements Store.
func (s *MemStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key] = record.Clone()
	return nil
}

// List implements Store.
func (s *MemStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}
