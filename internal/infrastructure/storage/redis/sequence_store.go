// Package redis provides Redis-backed stores for multi-instance
// deployments that do not want a relational database.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

const (
	seqKeyPrefix = "bulkqr:seq:"
	seqIndexKey  = "bulkqr:seq:index"
)

// SequenceStore implements sequence.Store on Redis. Each variant is one
// hash; an index set tracks all known variants for listing.
type SequenceStore struct {
	rdb redis.Cmdable
}

// NewSequenceStore creates a sequence store over the client.
func NewSequenceStore(rdb redis.Cmdable) *SequenceStore {
	return &SequenceStore{rdb: rdb}
}

func seqKey(key sequence.Key) string {
	return seqKeyPrefix + key.String()
}

// Get implements sequence.Store.
func (s *SequenceStore) Get(ctx context.Context, key sequence.Key) (sequence.Record, error) {
	fields, err := s.rdb.HGetAll(ctx, seqKey(key)).Result()
	if err != nil {
		return sequence.Record{}, fmt.Errorf("get sequence record: %w", err)
	}
	if len(fields) == 0 {
		return sequence.Record{}, sequence.ErrNotFound
	}
	return recordFromFields(key, fields)
}

// Put implements sequence.Store.
func (s *SequenceStore) Put(ctx context.Context, rec sequence.Record) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, seqKey(rec.Key),
			"last_id", rec.LastID,
			"period_tag", rec.PeriodTag,
			"issued", rec.Issued.String(),
			"updated_at", rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.SAdd(ctx, seqIndexKey, rec.Key.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("put sequence record: %w", err)
	}
	return nil
}

// List implements sequence.Store.
func (s *SequenceStore) List(ctx context.Context) ([]sequence.Record, error) {
	members, err := s.rdb.SMembers(ctx, seqIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list sequence index: %w", err)
	}
	sort.Strings(members)

	records := make([]sequence.Record, 0, len(members))
	for _, member := range members {
		key, err := sequence.ParseKey(member)
		if err != nil {
			return nil, fmt.Errorf("index entry %q: %w", member, err)
		}
		rec, err := s.Get(ctx, key)
		if errors.Is(err, sequence.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromFields(key sequence.Key, fields map[string]string) (sequence.Record, error) {
	rec := sequence.NewRecord(key)

	if raw, ok := fields["last_id"]; ok {
		lastID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sequence.Record{}, fmt.Errorf("last_id for %s: %w", key, err)
		}
		rec.LastID = lastID
	}
	rec.PeriodTag = fields["period_tag"]

	issued, err := sequence.ParseRanges(fields["issued"])
	if err != nil {
		return sequence.Record{}, fmt.Errorf("issued set for %s: %w", key, err)
	}
	rec.Issued = issued

	if raw, ok := fields["updated_at"]; ok && raw != "" {
		updated, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return sequence.Record{}, fmt.Errorf("updated_at for %s: %w", key, err)
		}
		rec.UpdatedAt = updated
	}
	return rec, nil
}

// Ensure compile-time interface compliance.
var _ sequence.Store = (*SequenceStore)(nil)
