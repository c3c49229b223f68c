package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pv2447407/bulkqr/internal/domain/session"
)

const sessionListKey = "bulkqr:sessions"

// SessionLog implements session.Log on a Redis list. LPUSH keeps the
// newest entry at index zero, so List is a single LRANGE.
type SessionLog struct {
	rdb redis.Cmdable
}

// NewSessionLog creates a session log over the client.
func NewSessionLog(rdb redis.Cmdable) *SessionLog {
	return &SessionLog{rdb: rdb}
}

// Append implements session.Log.
func (l *SessionLog) Append(ctx context.Context, s session.PrintSession) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal print session: %w", err)
	}
	if err := l.rdb.LPush(ctx, sessionListKey, payload).Err(); err != nil {
		return fmt.Errorf("append print session: %w", err)
	}
	return nil
}

// List implements session.Log.
func (l *SessionLog) List(ctx context.Context, limit int) ([]session.PrintSession, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := l.rdb.LRange(ctx, sessionListKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list print sessions: %w", err)
	}

	sessions := make([]session.PrintSession, 0, len(raw))
	for _, entry := range raw {
		var s session.PrintSession
		if err := json.Unmarshal([]byte(entry), &s); err != nil {
			return nil, fmt.Errorf("decode print session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

var _ session.Log = (*SessionLog)(nil)
