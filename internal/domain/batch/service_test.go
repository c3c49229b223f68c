package batch

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/pv2447407/bulkqr/internal/core/appctx"
	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/domain/layout"
	"github.com/pv2447407/bulkqr/internal/domain/render"
	"github.com/pv2447407/bulkqr/internal/domain/session"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
	"github.com/pv2447407/bulkqr/pkg/logger"
)

type fixture struct {
	store    *sequence.MemStore
	encoder  *symbol.MockEncoder
	writer   *MockWriter
	sessions *session.MemLog
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    sequence.NewMemStore(),
		encoder:  &symbol.MockEncoder{},
		writer:   &MockWriter{},
		sessions: session.NewMemLog(),
	}
	alloc := identifier.NewAllocator(f.store, identifier.DefaultFormat())
	pipe := render.NewPipeline(symbol.NewCompositor(f.encoder))
	f.service = NewService(alloc, pipe, f.writer, f.sessions, logger.Nop(), Config{})
	f.service.now = func() time.Time {
		return time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func baseRequest() Request {
	return Request{
		Category: "widgets",
		Product:  "RE",
		Size:     "L",
		Period:   "2501",
		Quantity: 5,
	}
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Run(ctx, baseRequest())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(res.Identifiers) != 5 {
		t.Fatalf("got %d identifiers, want 5", len(res.Identifiers))
	}
	if res.Identifiers[0].Text != "RMT-REL-2501-001" || res.Identifiers[4].Text != "RMT-REL-2501-005" {
		t.Errorf("identifier run = %q..%q", res.Identifiers[0].Text, res.Identifiers[4].Text)
	}
	if res.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", res.PageCount)
	}
	if len(res.Document) == 0 {
		t.Error("no document produced")
	}

	if len(f.writer.Docs) != 1 {
		t.Fatalf("writer received %d docs, want 1", len(f.writer.Docs))
	}
	doc := f.writer.Docs[0]
	if doc.PageWidth != 210 || doc.PageHeight != 297 {
		t.Errorf("canvas = %vx%v, want 210x297", doc.PageWidth, doc.PageHeight)
	}
	if len(doc.Pages) != 1 || len(doc.Pages[0].Placements) != 5 {
		t.Fatalf("doc shape = %d pages / %d placements", len(doc.Pages), len(doc.Pages[0].Placements))
	}

	// Label cell at (16.1, 34.2), symbol 70% of 25.4mm = 17.78mm, centered
	// with a 3.81mm inset on both axes.
	first := doc.Pages[0].Placements[0]
	if first.X != 19.91 || first.Y != 38.01 {
		t.Errorf("first placement = (%v, %v), want (19.91, 38.01)", first.X, first.Y)
	}
	if first.Width != 17.78 || first.Height != 17.78 {
		t.Errorf("symbol size = %vx%v, want 17.78x17.78", first.Width, first.Height)
	}

	sessions, _ := f.sessions.List(ctx, 0)
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if s.ID != res.BatchID || s.Count() != 5 || s.PageCount != 1 {
		t.Errorf("session = %+v", s)
	}
	if s.Identifiers[0] != "RMT-REL-2501-001" {
		t.Errorf("session identifiers = %v", s.Identifiers)
	}
}

func TestRunConfigErrorBeforeAllocation(t *testing.T) {
	f := newFixture(t)
	gets := 0
	store := &sequence.MockStore{
		GetFunc: func(ctx context.Context, key sequence.Key) (sequence.Record, error) {
			gets++
			return sequence.Record{}, sequence.ErrNotFound
		},
	}
	alloc := identifier.NewAllocator(store, identifier.DefaultFormat())
	pipe := render.NewPipeline(symbol.NewCompositor(f.encoder))
	svc := NewService(alloc, pipe, f.writer, f.sessions, logger.Nop(), Config{})

	bad := layout.DefaultConfig()
	bad.Cols = 9 // 9 * 25.4mm no longer fits a 210mm page
	req := baseRequest()
	req.Layout = &bad

	_, err := svc.Run(context.Background(), req)
	if !apperror.IsCode(err, apperror.CodeConfiguration) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeConfiguration)
	}
	if gets != 0 {
		t.Errorf("sequence store touched %d times before config validation", gets)
	}
}

func TestRunUnknownTemplate(t *testing.T) {
	f := newFixture(t)
	req := baseRequest()
	req.Template = "no-such-sheet"

	_, err := f.service.Run(context.Background(), req)
	if !apperror.IsCode(err, apperror.CodeConfiguration) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeConfiguration)
	}
	appErr, _ := apperror.AsAppError(err)
	if appErr.Details["template"] != "no-such-sheet" {
		t.Errorf("details = %v, want offending template name", appErr.Details)
	}
}

func TestRunZeroQuantity(t *testing.T) {
	f := newFixture(t)
	req := baseRequest()
	req.Quantity = 0

	res, err := f.service.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(res.Identifiers) != 0 || res.PageCount != 0 || res.Document != nil {
		t.Errorf("zero quantity produced output: %+v", res)
	}
	if len(f.writer.Docs) != 0 {
		t.Error("writer invoked for zero quantity batch")
	}
	if sessions, _ := f.sessions.List(context.Background(), 0); len(sessions) != 0 {
		t.Error("session recorded for zero quantity batch")
	}
}

func TestRunRenderFailureKeepsAllocation(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("encoder jam")
	f.encoder.EncodeFunc = func(text string, level symbol.ECLevel, pixelSize int) (image.Image, error) {
		return nil, boom
	}

	_, err := f.service.Run(context.Background(), baseRequest())
	if !apperror.IsCode(err, apperror.CodeEncoding) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeEncoding)
	}

	// Allocation happened before rendering and stays committed; a retry
	// continues at 6 instead of reprinting 1-5.
	rec, recErr := f.store.Get(context.Background(), sequence.NewKey("widgets", "RE", "L"))
	if recErr != nil {
		t.Fatalf("Get() error: %v", recErr)
	}
	if rec.LastID != 5 {
		t.Errorf("LastID = %d, want 5", rec.LastID)
	}

	if sessions, _ := f.sessions.List(context.Background(), 0); len(sessions) != 0 {
		t.Error("session recorded for failed batch")
	}
}

func TestRunWriterFailure(t *testing.T) {
	f := newFixture(t)
	f.writer.WriteFunc = func(ctx context.Context, doc Doc) ([]byte, error) {
		return nil, errors.New("disk full")
	}

	_, err := f.service.Run(context.Background(), baseRequest())
	if !apperror.IsCode(err, apperror.CodeInternal) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeInternal)
	}
	if sessions, _ := f.sessions.List(context.Background(), 0); len(sessions) != 0 {
		t.Error("session recorded despite writer failure")
	}
}

func TestRunSessionAppendFailureDoesNotVoidBatch(t *testing.T) {
	f := newFixture(t)
	failing := &session.MockLog{
		AppendFunc: func(ctx context.Context, s session.PrintSession) error {
			return errors.New("history unavailable")
		},
	}
	alloc := identifier.NewAllocator(f.store, identifier.DefaultFormat())
	pipe := render.NewPipeline(symbol.NewCompositor(f.encoder))
	svc := NewService(alloc, pipe, f.writer, failing, logger.Nop(), Config{})

	res, err := svc.Run(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(res.Document) == 0 {
		t.Error("no document despite successful batch")
	}
}

func TestRunRecordsOperator(t *testing.T) {
	f := newFixture(t)
	ctx := appctx.WithPrincipal(context.Background(), &appctx.Principal{
		Subject: "op-17",
		Roles:   []string{"operator"},
	})

	if _, err := f.service.Run(ctx, baseRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	sessions, _ := f.sessions.List(ctx, 0)
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].Operator != "op-17" {
		t.Errorf("Operator = %q, want op-17", sessions[0].Operator)
	}

	// Unauthenticated runs leave the operator blank.
	if _, err := f.service.Run(context.Background(), baseRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	sessions, _ = f.sessions.List(ctx, 0)
	if sessions[0].Operator != "" {
		t.Errorf("Operator = %q, want empty for anonymous run", sessions[0].Operator)
	}
}

func TestRunMultiPage(t *testing.T) {
	f := newFixture(t)
	req := baseRequest()
	req.Quantity = 64 // 63 per page

	res, err := f.service.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", res.PageCount)
	}
	doc := f.writer.Docs[0]
	if len(doc.Pages) != 2 || len(doc.Pages[0].Placements) != 63 || len(doc.Pages[1].Placements) != 1 {
		t.Errorf("doc shape = %d pages, %d + %d placements",
			len(doc.Pages), len(doc.Pages[0].Placements), len(doc.Pages[1].Placements))
	}
}

func TestPlanPreview(t *testing.T) {
	f := newFixture(t)
	req := baseRequest()
	req.Quantity = 20

	p, err := f.service.PlanPreview(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanPreview() error: %v", err)
	}
	if p.ItemsPerPage != 63 || p.PageCount != 1 {
		t.Errorf("preview = %d/page, %d pages, want 63/page, 1 page", p.ItemsPerPage, p.PageCount)
	}
	if p.MarginLeft != 16.1 || p.MarginTop != 34.2 {
		t.Errorf("margins = (%v, %v), want (16.1, 34.2)", p.MarginLeft, p.MarginTop)
	}
	if p.SymbolSizeMM != 17.78 || p.SymbolSizePx != 210 {
		t.Errorf("symbol = %vmm / %dpx, want 17.78mm / 210px", p.SymbolSizeMM, p.SymbolSizePx)
	}
	if len(p.Identifiers) != 20 || p.Identifiers[0] != "RMT-REL-2501-001" {
		t.Errorf("identifiers = %v", p.Identifiers)
	}

	if store, _ := f.store.List(context.Background()); len(store) != 0 {
		t.Error("preview touched the sequence store")
	}
}

func TestPlanPreviewZeroQuantity(t *testing.T) {
	f := newFixture(t)
	req := baseRequest()
	req.Quantity = 0

	p, err := f.service.PlanPreview(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanPreview() error: %v", err)
	}
	if len(p.Identifiers) != 0 || p.PageCount != 0 {
		t.Errorf("preview = %d identifiers, %d pages, want none", len(p.Identifiers), p.PageCount)
	}
}

func TestPlanPreviewContinuesFromCounter(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Run(context.Background(), baseRequest()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	req := baseRequest()
	req.Quantity = 2
	p, err := f.service.PlanPreview(context.Background(), req)
	if err != nil {
		t.Fatalf("PlanPreview() error: %v", err)
	}
	if len(p.Identifiers) != 2 || p.Identifiers[0] != "RMT-REL-2501-006" {
		t.Errorf("identifiers = %v, want run starting at 006", p.Identifiers)
	}

	// The dry run must not have advanced the counter.
	rec, err := f.store.Get(context.Background(), sequence.NewKey("widgets", "RE", "L"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec.LastID != 5 {
		t.Errorf("LastID = %d, want 5", rec.LastID)
	}
}

func TestRunBadSymbolPercent(t *testing.T) {
	f := newFixture(t)
	req := baseRequest()
	req.SymbolPercent = 140

	if _, err := f.service.Run(context.Background(), req); !apperror.IsCode(err, apperror.CodeConfiguration) {
		t.Errorf("error = %v, want %s", err, apperror.CodeConfiguration)
	}
}
