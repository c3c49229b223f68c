package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

const sequenceTable = "seq_records"

// sequenceRow is the scan target for seq_records.
type sequenceRow struct {
	Category  string    `db:"category"`
	Product   string    `db:"product"`
	Size      string    `db:"size"`
	LastID    int64     `db:"last_id"`
	PeriodTag string    `db:"period_tag"`
	Issued    string    `db:"issued"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r sequenceRow) record() (sequence.Record, error) {
	issued, err := sequence.ParseRanges(r.Issued)
	if err != nil {
		return sequence.Record{}, fmt.Errorf("issued set for %s/%s/%s: %w", r.Category, r.Product, r.Size, err)
	}
	return sequence.Record{
		Key:       sequence.NewKey(r.Category, r.Product, r.Size),
		LastID:    r.LastID,
		PeriodTag: r.PeriodTag,
		Issued:    issued,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// SequenceStore implements sequence.Store on PostgreSQL. One row per
// variant key; the issued set is stored in its compact range form.
type SequenceStore struct {
	pool    *Pool
	builder squirrel.StatementBuilderType
}

// NewSequenceStore creates a sequence store over the pool.
func NewSequenceStore(pool *Pool) *SequenceStore {
	return &SequenceStore{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// EnsureSchema creates the backing table when missing.
func (s *SequenceStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS seq_records (
			category   text NOT NULL,
			product    text NOT NULL,
			size       text NOT NULL,
			last_id    bigint NOT NULL DEFAULT 0,
			period_tag text NOT NULL DEFAULT '',
			issued     text NOT NULL DEFAULT '',
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (category, product, size)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure seq_records: %w", err)
	}
	return nil
}

// Get implements sequence.Store.
func (s *SequenceStore) Get(ctx context.Context, key sequence.Key) (sequence.Record, error) {
	q := s.builder.
		Select("category", "product", "size", "last_id", "period_tag", "issued", "updated_at").
		From(sequenceTable).
		Where(squirrel.Eq{"category": key.Category, "product": key.Product, "size": key.Size})

	sql, args, err := q.ToSql()
	if err != nil {
		return sequence.Record{}, fmt.Errorf("build query: %w", err)
	}

	var row sequenceRow
	if err := pgxscan.Get(ctx, s.pool, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return sequence.Record{}, sequence.ErrNotFound
		}
		return sequence.Record{}, fmt.Errorf("get sequence record: %w", err)
	}
	return row.record()
}

// Put implements sequence.Store.
func (s *SequenceStore) Put(ctx context.Context, rec sequence.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO seq_records (category, product, size, last_id, period_tag, issued, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (category, product, size) DO UPDATE SET
			last_id    = EXCLUDED.last_id,
			period_tag = EXCLUDED.period_tag,
			issued     = EXCLUDED.issued,
			updated_at = EXCLUDED.updated_at
	`, rec.Key.Category, rec.Key.Product, rec.Key.Size,
		rec.LastID, rec.PeriodTag, rec.Issued.String(), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put sequence record: %w", err)
	}
	return nil
}

// List implements sequence.Store.
func (s *SequenceStore) List(ctx context.Context) ([]sequence.Record, error) {
	q := s.builder.
		Select("category", "product", "size", "last_id", "period_tag", "issued", "updated_at").
		From(sequenceTable).
		OrderBy("category", "product", "size")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []sequenceRow
	if err := pgxscan.Select(ctx, s.pool, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list sequence records: %w", err)
	}

	records := make([]sequence.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Ensure compile-time interface compliance.
var _ sequence.Store = (*SequenceStore)(nil)
