// Package file provides JSON-file-backed stores guarded by advisory file
// locks, for single-host deployments without a database.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

const (
	lockTimeout       = 3 * time.Second
	lockRetryInterval = 100 * time.Millisecond
)

// storeData is the JSON file structure.
type storeData struct {
	Version   string            `json:"version"`
	Records   []sequence.Record `json:"records"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SequenceStore implements sequence.Store on a single JSON file. The file
// lock guards against other processes; the mutex against other goroutines.
type SequenceStore struct {
	path     string
	fileLock *flock.Flock
	mu       sync.RWMutex
}

// NewSequenceStore creates a store at path, creating parent directories.
func NewSequenceStore(path string) (*SequenceStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &SequenceStore{
		path:     path,
		fileLock: flock.New(path + ".lock"),
	}, nil
}

func (s *SequenceStore) acquire(ctx context.Context) (release func(), err error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire file lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("file lock busy: %s", s.path)
	}
	return func() { _ = s.fileLock.Unlock() }, nil
}

// load reads the file without locking; callers hold the locks.
func (s *SequenceStore) load() (storeData, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return storeData{Version: "1"}, nil
	}
	if err != nil {
		return storeData{}, fmt.Errorf("read store: %w", err)
	}
	if len(data) == 0 {
		return storeData{Version: "1"}, nil
	}

	var store storeData
	if err := json.Unmarshal(data, &store); err != nil {
		return storeData{}, fmt.Errorf("parse store: %w", err)
	}
	return store, nil
}

// save writes via a temp file and rename so readers never see a torn file.
func (s *SequenceStore) save(store storeData) error {
	store.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// Get implements sequence.Store.
func (s *SequenceStore) Get(ctx context.Context, key sequence.Key) (sequence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	release, err := s.acquire(ctx)
	if err != nil {
		return sequence.Record{}, err
	}
	defer release()

	store, err := s.load()
	if err != nil {
		return sequence.Record{}, err
	}
	for _, rec := range store.Records {
		if rec.Key == key {
			return rec.Clone(), nil
		}
	}
	return sequence.Record{}, sequence.ErrNotFound
}

// Put implements sequence.Store.
func (s *SequenceStore) Put(ctx context.Context, rec sequence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	store, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range store.Records {
		if store.Records[i].Key == rec.Key {
			store.Records[i] = rec.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		store.Records = append(store.Records, rec.Clone())
	}
	return s.save(store)
}

// List implements sequence.Store.
func (s *SequenceStore) List(ctx context.Context) ([]sequence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	store, err := s.load()
	if err != nil {
		return nil, err
	}

	records := make([]sequence.Record, 0, len(store.Records))
	for _, rec := range store.Records {
		records = append(records, rec.Clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key.String() < records[j].Key.String()
	})
	return records, nil
}

// Ensure compile-time interface compliance.
var _ sequence.Store = (*SequenceStore)(nil)
