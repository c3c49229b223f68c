package identifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

var tracer = otel.Tracer("bulkqr/identifier")

// AllocateRequest describes one allocation against a variant sequence.
type AllocateRequest struct {
	Key      sequence.Key
	Period   string // YYMM tag embedded in the identifiers; empty means current month
	Quantity int

	// ExplicitStart pins the first sequence number instead of continuing
	// from the stored counter. Zero means continue.
	ExplicitStart int64
}

// GapReport lists the sequence numbers never issued for a variant,
// bounded by the highest number issued so far.
type GapReport struct {
	Key     sequence.Key `json:"key"`
	LastID  int64        `json:"lastId"`
	Missing []int64      `json:"missing"`
}

// Allocator issues runs of identifiers backed by a sequence.Store.
//
// All mutation for one variant key happens under that key's lock, so the
// read-modify-write against the store is atomic per variant even when the
// store itself has no transactional semantics (file, memory).
type Allocator struct {
	store  sequence.Store
	format Format

	mu    sync.Mutex
	locks map[sequence.Key]*sync.Mutex

	now func() time.Time
}

// NewAllocator builds an allocator over the given store.
func NewAllocator(store sequence.Store, format Format) *Allocator {
	return &Allocator{
		store:  store,
		format: format,
		locks:  make(map[sequence.Key]*sync.Mutex),
		now:    time.Now,
	}
}

// Format returns the identifier format the allocator renders with.
func (a *Allocator) Format() Format {
	return a.format
}

func (a *Allocator) keyLock(key sequence.Key) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

// Allocate issues req.Quantity consecutive identifiers for the variant and
// persists the advanced counter plus the issued set before returning.
//
// Without ExplicitStart the run continues at lastId+1. With ExplicitStart the
// requested span must not touch any previously issued number; otherwise the
// call fails with an invalid-range error and the stored record is untouched.
// A zero quantity returns an empty slice and performs no store write.
func (a *Allocator) Allocate(ctx context.Context, req AllocateRequest) ([]Identifier, error) {
	ctx, span := tracer.Start(ctx, "identifier.Allocate")
	defer span.End()

	req, err := a.normalize(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("variant", req.Key.String()),
		attribute.String("period", req.Period),
		attribute.Int("quantity", req.Quantity),
	)

	if req.Quantity == 0 {
		return []Identifier{}, nil
	}

	lock := a.keyLock(req.Key)
	lock.Lock()
	defer lock.Unlock()

	rec, err := a.load(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	start, end, err := planRun(rec, req)
	if err != nil {
		return nil, err
	}
	ids := a.identifiers(req, start, end)

	rec.Issued = rec.Issued.Mark(start, end)
	if end > rec.LastID {
		rec.LastID = end
	}
	rec.PeriodTag = req.Period
	rec.UpdatedAt = a.now().UTC()

	if err := a.store.Put(ctx, rec); err != nil {
		return nil, apperror.NewStore(fmt.Errorf("persist sequence record: %w", err)).
			WithDetail("variant", req.Key.String())
	}
	return ids, nil
}

// Plan computes the identifiers a request would issue without writing
// anything. The run is advisory: a concurrent allocation may take the
// numbers before the caller commits.
func (a *Allocator) Plan(ctx context.Context, req AllocateRequest) ([]Identifier, error) {
	ctx, span := tracer.Start(ctx, "identifier.Plan")
	defer span.End()

	req, err := a.normalize(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("variant", req.Key.String()),
		attribute.Int("quantity", req.Quantity),
	)

	if req.Quantity == 0 {
		return []Identifier{}, nil
	}

	rec, err := a.load(ctx, req.Key)
	if err != nil {
		return nil, err
	}
	start, end, err := planRun(rec, req)
	if err != nil {
		return nil, err
	}
	return a.identifiers(req, start, end), nil
}

func (a *Allocator) normalize(req AllocateRequest) (AllocateRequest, error) {
	req.Key = sequence.NewKey(req.Key.Category, req.Key.Product, req.Key.Size)
	if err := req.Key.Validate(); err != nil {
		return req, apperror.NewValidation(err.Error())
	}
	if req.Quantity < 0 {
		return req, apperror.NewValidation("quantity must not be negative").
			WithDetail("quantity", req.Quantity)
	}
	if req.ExplicitStart < 0 {
		return req, apperror.NewValidation("explicit start must be positive").
			WithDetail("start", req.ExplicitStart)
	}
	if req.Period == "" {
		req.Period = PeriodTag(a.now())
	}
	if err := ValidatePeriod(req.Period); err != nil {
		return req, apperror.NewValidation(err.Error())
	}
	return req, nil
}

func (a *Allocator) load(ctx context.Context, key sequence.Key) (sequence.Record, error) {
	rec, err := a.store.Get(ctx, key)
	switch {
	case errors.Is(err, sequence.ErrNotFound):
		return sequence.NewRecord(key), nil
	case err != nil:
		return sequence.Record{}, apperror.NewStore(fmt.Errorf("load sequence record: %w", err)).
			WithDetail("variant", key.String())
	}
	return rec, nil
}

// planRun resolves the span a request issues against the current record.
// An explicit start must not touch any previously issued number.
func planRun(rec sequence.Record, req AllocateRequest) (start, end int64, err error) {
	start = rec.LastID + 1
	if req.ExplicitStart > 0 {
		start = req.ExplicitStart
	}
	end = start + int64(req.Quantity) - 1

	if req.ExplicitStart > 0 && rec.Issued.Overlaps(start, end) {
		return 0, 0, apperror.NewInvalidRange(req.Key.String(), start, end)
	}
	return start, end, nil
}

func (a *Allocator) identifiers(req AllocateRequest, start, end int64) []Identifier {
	product := strings.ToUpper(req.Key.Product)
	size := strings.ToUpper(req.Key.Size)
	ids := make([]Identifier, 0, req.Quantity)
	for n := start; n <= end; n++ {
		ids = append(ids, a.format.Make(product, size, req.Period, n))
	}
	return ids
}

// Gaps reports the never-issued numbers below the variant's counter.
// An unknown variant yields an empty report rather than an error.
func (a *Allocator) Gaps(ctx context.Context, key sequence.Key) (GapReport, error) {
	ctx, span := tracer.Start(ctx, "identifier.Gaps")
	defer span.End()

	key = sequence.NewKey(key.Category, key.Product, key.Size)
	if err := key.Validate(); err != nil {
		return GapReport{}, apperror.NewValidation(err.Error())
	}
	span.SetAttributes(attribute.String("variant", key.String()))

	rec, err := a.store.Get(ctx, key)
	switch {
	case errors.Is(err, sequence.ErrNotFound):
		return GapReport{Key: key, Missing: []int64{}}, nil
	case err != nil:
		return GapReport{}, apperror.NewStore(fmt.Errorf("load sequence record: %w", err)).
			WithDetail("variant", key.String())
	}
	return GapReport{Key: key, LastID: rec.LastID, Missing: rec.Gaps()}, nil
}

// SetNext moves a variant's counter so that the next continuing allocation
// starts at next. The counter never moves backwards; asking for a number at
// or below the current position fails.
func (a *Allocator) SetNext(ctx context.Context, key sequence.Key, next int64) (sequence.Record, error) {
	ctx, span := tracer.Start(ctx, "identifier.SetNext")
	defer span.End()

	key = sequence.NewKey(key.Category, key.Product, key.Size)
	if err := key.Validate(); err != nil {
		return sequence.Record{}, apperror.NewValidation(err.Error())
	}
	if next < 1 {
		return sequence.Record{}, apperror.NewValidation("next must be positive").
			WithDetail("next", next)
	}
	span.SetAttributes(attribute.String("variant", key.String()), attribute.Int64("next", next))

	lock := a.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	rec, err := a.store.Get(ctx, key)
	switch {
	case errors.Is(err, sequence.ErrNotFound):
		rec = sequence.NewRecord(key)
	case err != nil:
		return sequence.Record{}, apperror.NewStore(fmt.Errorf("load sequence record: %w", err)).
			WithDetail("variant", key.String())
	}

	if next <= rec.LastID {
		return sequence.Record{}, apperror.NewValidation("counter cannot move backwards").
			WithDetail("variant", key.String()).
			WithDetail("lastId", rec.LastID).
			WithDetail("next", next)
	}
	rec.LastID = next - 1
	rec.UpdatedAt = a.now().UTC()

	if err := a.store.Put(ctx, rec); err != nil {
		return sequence.Record{}, apperror.NewStore(fmt.Errorf("persist sequence record: %w", err)).
			WithDetail("variant", key.String())
	}
	return rec, nil
}
