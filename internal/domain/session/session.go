// Package session records completed print batches for audit and history.
package session

import (
	"context"
	"time"

	"github.com/pv2447407/bulkqr/internal/core/id"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

// PrintSession is the append-only record of one completed batch.
type PrintSession struct {
	ID          id.ID        `json:"id"`
	Variant     sequence.Key `json:"variant"`
	Identifiers []string     `json:"identifiers"`

	// Operator is the authenticated caller who ran the batch, empty when
	// the batch ran unauthenticated.
	Operator string `json:"operator,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	PageCount   int       `json:"pageCount"`
}

// Count returns the number of identifiers covered by the session.
func (s PrintSession) Count() int {
	return len(s.Identifiers)
}

// Log stores completed sessions. Entries are immutable once appended.
type Log interface {
	// Append records one completed session.
	Append(ctx context.Context, s PrintSession) error

	// List returns up to limit sessions, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]PrintSession, error)
}
