package sequence

import (
	"context"
)

// MockStore is a test implementation of Store.
// Use in unit tests to script store failures without a real backend.
type MockStore struct {
	GetFunc  func(ctx context.Context, key Key) (Record, error)
	PutFunc  func(ctx context.Context, record Record) error
	ListFunc func(ctx context.Context) ([]Record, error)
}

// Get implements Store.
func (m *MockStore) Get(ctx context.Context, key Key) (Record, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return Record{}, ErrNotFound
}

// Put implements Store.
func (m *MockStore) Put(ctx context.Context, record Record) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, record)
	}
	return nil
}

// List implements Store.
func (m *MockStore) List(ctx context.Context) ([]Record, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// Ensure compile-time interface compliance.
var _ Store = (*MockStore)(nil)
