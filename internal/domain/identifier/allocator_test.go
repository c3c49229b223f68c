package identifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
)

func newTestAllocator(store sequence.Store) *Allocator {
	a := NewAllocator(store, DefaultFormat())
	a.now = func() time.Time {
		return time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)
	}
	return a
}

func relKey() sequence.Key {
	return sequence.NewKey("widgets", "RE", "L")
}

func TestAllocateContinuesFromCounter(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)
	ctx := context.Background()

	first, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 3})
	if err != nil {
		t.Fatalf("first Allocate() error: %v", err)
	}
	second, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 2})
	if err != nil {
		t.Fatalf("second Allocate() error: %v", err)
	}

	wantFirst := []string{"RMT-REL-2501-001", "RMT-REL-2501-002", "RMT-REL-2501-003"}
	for i, want := range wantFirst {
		if first[i].Text != want {
			t.Errorf("first[%d] = %q, want %q", i, first[i].Text, want)
		}
	}
	wantSecond := []string{"RMT-REL-2501-004", "RMT-REL-2501-005"}
	for i, want := range wantSecond {
		if second[i].Text != want {
			t.Errorf("second[%d] = %q, want %q", i, second[i].Text, want)
		}
	}

	rec, err := store.Get(ctx, relKey())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec.LastID != 5 {
		t.Errorf("LastID = %d, want 5", rec.LastID)
	}
	if got := rec.Issued.String(); got != "1-5" {
		t.Errorf("Issued = %q, want 1-5", got)
	}
	if rec.PeriodTag != "2501" {
		t.Errorf("PeriodTag = %q, want 2501", rec.PeriodTag)
	}
}

func TestAllocateZeroQuantityIsNoOp(t *testing.T) {
	puts := 0
	store := &sequence.MockStore{
		PutFunc: func(ctx context.Context, rec sequence.Record) error {
			puts++
			return nil
		},
	}
	a := newTestAllocator(store)

	ids, err := a.Allocate(context.Background(), AllocateRequest{Key: relKey(), Quantity: 0})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("got %d identifiers, want 0", len(ids))
	}
	if puts != 0 {
		t.Errorf("store written %d times, want untouched", puts)
	}
}

func TestAllocateValidation(t *testing.T) {
	a := newTestAllocator(sequence.NewMemStore())
	ctx := context.Background()

	tests := []struct {
		name string
		req  AllocateRequest
	}{
		{"negative quantity", AllocateRequest{Key: relKey(), Quantity: -1}},
		{"negative start", AllocateRequest{Key: relKey(), Quantity: 1, ExplicitStart: -5}},
		{"bad period", AllocateRequest{Key: relKey(), Quantity: 1, Period: "january"}},
		{"empty key", AllocateRequest{Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Allocate(ctx, tt.req)
			if !apperror.IsCode(err, apperror.CodeValidation) {
				t.Errorf("Allocate() error = %v, want %s", err, apperror.CodeValidation)
			}
		})
	}
}

func TestAllocateExplicitStartOverlap(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)
	ctx := context.Background()

	if _, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 5}); err != nil {
		t.Fatalf("seed Allocate() error: %v", err)
	}
	before, _ := store.Get(ctx, relKey())

	_, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 4, ExplicitStart: 3})
	if !apperror.IsCode(err, apperror.CodeInvalidRange) {
		t.Fatalf("Allocate() error = %v, want %s", err, apperror.CodeInvalidRange)
	}

	after, _ := store.Get(ctx, relKey())
	if after.LastID != before.LastID || after.Issued.String() != before.Issued.String() {
		t.Errorf("record changed on rejected allocation: %+v -> %+v", before, after)
	}
}

func TestAllocateExplicitStartAheadAndGapFill(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)
	ctx := context.Background()

	ids, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 2, ExplicitStart: 10})
	if err != nil {
		t.Fatalf("ahead Allocate() error: %v", err)
	}
	if ids[0].Seq != 10 || ids[1].Seq != 11 {
		t.Errorf("seqs = %d,%d, want 10,11", ids[0].Seq, ids[1].Seq)
	}

	// Numbers below the counter that were never issued stay allocatable.
	if _, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 3, ExplicitStart: 1}); err != nil {
		t.Fatalf("gap fill Allocate() error: %v", err)
	}

	rec, _ := store.Get(ctx, relKey())
	if rec.LastID != 11 {
		t.Errorf("LastID = %d, want 11", rec.LastID)
	}
	if got := rec.Issued.String(); got != "1-3,10-11" {
		t.Errorf("Issued = %q, want 1-3,10-11", got)
	}

	report, err := a.Gaps(ctx, relKey())
	if err != nil {
		t.Fatalf("Gaps() error: %v", err)
	}
	want := []int64{4, 5, 6, 7, 8, 9}
	if len(report.Missing) != len(want) {
		t.Fatalf("Missing = %v, want %v", report.Missing, want)
	}
	for i := range want {
		if report.Missing[i] != want[i] {
			t.Fatalf("Missing = %v, want %v", report.Missing, want)
		}
	}
}

func TestGapsUnknownVariant(t *testing.T) {
	a := newTestAllocator(sequence.NewMemStore())

	report, err := a.Gaps(context.Background(), relKey())
	if err != nil {
		t.Fatalf("Gaps() error: %v", err)
	}
	if report.LastID != 0 || len(report.Missing) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestAllocateStoreErrors(t *testing.T) {
	boom := errors.New("backend down")

	t.Run("get fails", func(t *testing.T) {
		store := &sequence.MockStore{
			GetFunc: func(ctx context.Context, key sequence.Key) (sequence.Record, error) {
				return sequence.Record{}, boom
			},
		}
		_, err := newTestAllocator(store).Allocate(context.Background(),
			AllocateRequest{Key: relKey(), Quantity: 1})
		if !apperror.IsCode(err, apperror.CodeStore) {
			t.Errorf("error = %v, want %s", err, apperror.CodeStore)
		}
		if !errors.Is(err, boom) {
			t.Errorf("error chain lost the cause: %v", err)
		}
	})

	t.Run("put fails", func(t *testing.T) {
		store := &sequence.MockStore{
			PutFunc: func(ctx context.Context, rec sequence.Record) error {
				return boom
			},
		}
		ids, err := newTestAllocator(store).Allocate(context.Background(),
			AllocateRequest{Key: relKey(), Quantity: 1})
		if !apperror.IsCode(err, apperror.CodeStore) {
			t.Errorf("error = %v, want %s", err, apperror.CodeStore)
		}
		if ids != nil {
			t.Errorf("identifiers returned despite failed persist: %v", ids)
		}
	})
}

func TestAllocateConcurrentRunsAreDisjoint(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := a.Allocate(context.Background(),
				AllocateRequest{Key: relKey(), Quantity: perWorker})
			if err != nil {
				t.Errorf("Allocate() error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id.Text] {
					t.Errorf("identifier %q issued twice", id.Text)
				}
				seen[id.Text] = true
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("issued %d identifiers, want %d", len(seen), workers*perWorker)
	}
	rec, _ := store.Get(context.Background(), relKey())
	if rec.LastID != workers*perWorker {
		t.Errorf("LastID = %d, want %d", rec.LastID, workers*perWorker)
	}
	if report, _ := a.Gaps(context.Background(), relKey()); len(report.Missing) != 0 {
		t.Errorf("gaps after contiguous allocations: %v", report.Missing)
	}
}

func TestPlanIsReadOnly(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)
	ctx := context.Background()

	if _, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 3}); err != nil {
		t.Fatalf("seed Allocate() error: %v", err)
	}

	ids, err := a.Plan(ctx, AllocateRequest{Key: relKey(), Quantity: 2})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if ids[0].Text != "RMT-REL-2501-004" || ids[1].Text != "RMT-REL-2501-005" {
		t.Errorf("planned run = %q,%q, want 004,005", ids[0].Text, ids[1].Text)
	}

	rec, _ := store.Get(ctx, relKey())
	if rec.LastID != 3 || rec.Issued.String() != "1-3" {
		t.Errorf("plan mutated the record: %+v", rec)
	}

	// Planning twice yields the same run until something commits.
	again, err := a.Plan(ctx, AllocateRequest{Key: relKey(), Quantity: 2})
	if err != nil {
		t.Fatalf("second Plan() error: %v", err)
	}
	if again[0].Text != ids[0].Text {
		t.Errorf("plans diverged: %q vs %q", again[0].Text, ids[0].Text)
	}
}

func TestPlanRejectsOverlap(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)
	ctx := context.Background()

	if _, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 5}); err != nil {
		t.Fatalf("seed Allocate() error: %v", err)
	}

	_, err := a.Plan(ctx, AllocateRequest{Key: relKey(), Quantity: 2, ExplicitStart: 4})
	if !apperror.IsCode(err, apperror.CodeInvalidRange) {
		t.Errorf("Plan() error = %v, want %s", err, apperror.CodeInvalidRange)
	}

	if ids, err := a.Plan(ctx, AllocateRequest{Key: relKey(), Quantity: 0}); err != nil || len(ids) != 0 {
		t.Errorf("zero quantity Plan() = %v, %v, want empty, nil", ids, err)
	}
}

func TestSetNext(t *testing.T) {
	store := sequence.NewMemStore()
	a := newTestAllocator(store)
	ctx := context.Background()

	rec, err := a.SetNext(ctx, relKey(), 100)
	if err != nil {
		t.Fatalf("SetNext() error: %v", err)
	}
	if rec.LastID != 99 {
		t.Errorf("LastID = %d, want 99", rec.LastID)
	}

	ids, err := a.Allocate(ctx, AllocateRequest{Key: relKey(), Quantity: 1})
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if ids[0].Seq != 100 {
		t.Errorf("next seq = %d, want 100", ids[0].Seq)
	}

	if _, err := a.SetNext(ctx, relKey(), 50); !apperror.IsCode(err, apperror.CodeValidation) {
		t.Errorf("backwards SetNext() error = %v, want %s", err, apperror.CodeValidation)
	}
}
