package sequence

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when a variant has no record yet.
var ErrNotFound = errors.New("sequence record not found")

// Store persists one Record per variant Key.
// This is the domain contract - implementations live in infrastructure layer.
//
// Get and Put need no internal locking beyond their own consistency: the
// allocator serializes all read-modify-write cycles per variant key.
type Store interface {
	// Get returns the record for key, or ErrNotFound.
	Get(ctx context.Context, key Key) (Record, error)

	// Put writes the record for record.Key, replacing any previous state.
	Put(ctx context.Context, record Record) error

	// List returns all records, ordered by key.
	List(ctx context.Context) ([]Record, error)
}
