package session

import (
	"context"
	"sync"
)

// MemLog is the in-memory Log used by tests and the memory storage backend.
type MemLog struct {
	mu       sync.RWMutex
	sessions []PrintSession
}

// NewMemLog creates an empty in-memory session log.
func NewMemLog() *MemLog {
	return &MemLog{}
}

// Append implements Log.
func (l *MemLog) Append(ctx context.Context, s PrintSession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = append(l.sessions, s)
	return nil
}

// List implements Log.
func (l *MemLog) List(ctx context.Context, limit int) ([]PrintSession, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.sessions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]PrintSession, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.sessions[i])
	}
	return out, nil
}

// Ensure compile-time interface compliance.
var _ Log = (*MemLog)(nil)
