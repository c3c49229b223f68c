package session

import "context"

// MockLog is a test implementation of Log.
type MockLog struct {
	AppendFunc func(ctx context.Context, s PrintSession) error
	ListFunc   func(ctx context.Context, limit int) ([]PrintSession, error)
}

// Append implements Log.
func (m *MockLog) Append(ctx context.Context, s PrintSession) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, s)
	}
	return nil
}

// List implements Log.
func (m *MockLog) List(ctx context.Context, limit int) ([]PrintSession, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit)
	}
	return nil, nil
}

// Ensure compile-time interface compliance.
var _ Log = (*MockLog)(nil)
