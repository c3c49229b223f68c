package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/pv2447407/bulkqr/internal/core/id"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/session"
)

// compressionAlgo marks how a session's identifier list is stored.
type compressionAlgo string

const (
	compressionNone compressionAlgo = "none"
	compressionZstd compressionAlgo = "zstd"
)

// SessionLog implements session.Log on PostgreSQL. Large identifier lists
// are zstd-compressed; a one-sheet batch stays as plain jsonb.
type SessionLog struct {
	pool              *Pool
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewSessionLog creates a session log over the pool.
func NewSessionLog(pool *Pool) (*SessionLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &SessionLog{
		pool:              pool,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// EnsureSchema creates the backing table when missing.
func (l *SessionLog) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS print_sessions (
			id                     uuid PRIMARY KEY,
			category               text NOT NULL,
			product                text NOT NULL,
			size                   text NOT NULL,
			identifiers            jsonb,
			identifiers_compressed bytea,
			compression_algo       text NOT NULL DEFAULT 'none',
			operator               text NOT NULL DEFAULT '',
			started_at             timestamptz NOT NULL,
			completed_at           timestamptz NOT NULL,
			page_count             int NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure print_sessions: %w", err)
	}
	return nil
}

// Append implements session.Log.
func (l *SessionLog) Append(ctx context.Context, s session.PrintSession) error {
	payload, err := json.Marshal(s.Identifiers)
	if err != nil {
		return fmt.Errorf("marshal identifiers: %w", err)
	}

	algo := compressionNone
	var compressed []byte
	if len(payload) > l.compressThreshold {
		compressed = l.encoder.EncodeAll(payload, nil)
		payload = nil
		algo = compressionZstd
	}

	_, err = l.pool.Exec(ctx, `
		INSERT INTO print_sessions (
			id, category, product, size,
			identifiers, identifiers_compressed, compression_algo,
			operator, started_at, completed_at, page_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.ID, s.Variant.Category, s.Variant.Product, s.Variant.Size,
		payload, compressed, algo,
		s.Operator, s.StartedAt, s.CompletedAt, s.PageCount)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

// List implements session.Log.
func (l *SessionLog) List(ctx context.Context, limit int) ([]session.PrintSession, error) {
	sql := `
		SELECT id, category, product, size,
			   identifiers, identifiers_compressed, compression_algo,
			   operator, started_at, completed_at, page_count
		FROM print_sessions
		ORDER BY completed_at DESC
	`
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.PrintSession
	for rows.Next() {
		var (
			s          session.PrintSession
			sessionID  id.ID
			category   string
			product    string
			size       string
			payload    []byte
			compressed []byte
			algo       compressionAlgo
			operator   string
			started    time.Time
			completed  time.Time
			pages      int
		)
		if err := rows.Scan(&sessionID, &category, &product, &size,
			&payload, &compressed, &algo, &operator, &started, &completed, &pages); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		if algo == compressionZstd && len(compressed) > 0 {
			payload, err = l.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress identifiers: %w", err)
			}
		}
		var identifiers []string
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &identifiers); err != nil {
				return nil, fmt.Errorf("unmarshal identifiers: %w", err)
			}
		}

		s.ID = sessionID
		s.Variant = sequence.NewKey(category, product, size)
		s.Identifiers = identifiers
		s.Operator = operator
		s.StartedAt = started
		s.CompletedAt = completed
		s.PageCount = pages
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Ensure compile-time interface compliance.
var _ session.Log = (*SessionLog)(nil)
