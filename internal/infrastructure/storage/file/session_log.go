package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/pv2447407/bulkqr/internal/domain/session"
)

// SessionLog implements session.Log as a JSON-lines file, one completed
// session per line. Appends never rewrite earlier entries.
type SessionLog struct {
	path     string
	fileLock *flock.Flock
	mu       sync.Mutex
}

// NewSessionLog creates a session log at path, creating parent directories.
func NewSessionLog(path string) (*SessionLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &SessionLog{
		path:     path,
		fileLock: flock.New(path + ".lock"),
	}, nil
}

func (l *SessionLog) acquire(ctx context.Context) (release func(), err error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := l.fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire file lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("file lock busy: %s", l.path)
	}
	return func() { _ = l.fileLock.Unlock() }, nil
}

// Append implements session.Log.
func (l *SessionLog) Append(ctx context.Context, s session.PrintSession) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	line, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return f.Sync()
}

// List implements session.Log.
func (l *SessionLog) List(ctx context.Context, limit int) ([]session.PrintSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []session.PrintSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var all []session.PrintSession
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s session.PrintSession
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("parse session line: %w", err)
		}
		all = append(all, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	n := len(all)
	if limit <= 0 || limit > n {
		limit = n
	}
	sessions := make([]session.PrintSession, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		sessions = append(sessions, all[i])
	}
	return sessions, nil
}

// Ensure compile-time interface compliance.
var _ session.Log = (*SessionLog)(nil)
