package batch

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pv2447407/bulkqr/internal/core/appctx"
	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/core/id"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/domain/layout"
	"github.com/pv2447407/bulkqr/internal/domain/render"
	"github.com/pv2447407/bulkqr/internal/domain/session"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
	"github.com/pv2447407/bulkqr/pkg/logger"
)

var tracer = otel.Tracer("bulkqr/batch")

const (
	// DefaultSymbolPercent is the symbol edge length as a share of the
	// label cell, matching the reference sheets.
	DefaultSymbolPercent = 70

	// renderDPI converts millimeters to symbol pixels.
	renderDPI = 300
)

// Config carries service-level settings shared by all batches.
type Config struct {
	// TemplatesDir holds user sheet templates; empty allows only the
	// built-in sheet.
	TemplatesDir string

	// Logo is the brand mark composited onto symbols when a request
	// enables the logo without supplying its own raster.
	Logo image.Image
}

// Request describes one print batch.
type Request struct {
	Category string
	Product  string
	Size     string
	Period   string

	Quantity      int
	ExplicitStart int64

	// Template names the sheet geometry; Layout overrides it when set.
	Template string
	Layout   *layout.Config

	// Composite controls symbol rendering. Zero PixelSize derives the
	// size from the label cell; empty Level means medium.
	Composite symbol.CompositeConfig

	// SymbolPercent is the symbol edge as a percentage of the label
	// cell's short side, inside (0, 100]. Zero means the default.
	SymbolPercent float64

	Concurrency int
	OnProgress  render.ProgressFunc
}

// Result is a completed batch: the identifiers issued and the document.
type Result struct {
	BatchID     id.ID
	Identifiers []identifier.Identifier
	PageCount   int
	Document    []byte
}

// Preview describes what a request would print, without allocating or
// rendering anything. Identifiers is the run the next allocation would
// issue; it is advisory until a batch actually commits it.
type Preview struct {
	Layout       layout.Config `json:"layout"`
	MarginLeft   float64       `json:"marginLeft"`
	MarginTop    float64       `json:"marginTop"`
	ItemsPerPage int           `json:"itemsPerPage"`
	PageCount    int           `json:"pageCount"`
	SymbolSizeMM float64       `json:"symbolSizeMm"`
	SymbolSizePx int           `json:"symbolSizePx"`
	Identifiers  []string      `json:"identifiers"`
}

// Service runs print batches.
type Service struct {
	alloc    *identifier.Allocator
	pipe     *render.Pipeline
	writer   PageWriter
	sessions session.Log
	log      *logger.Logger
	cfg      Config

	now func() time.Time
}

// NewService wires the batch orchestrator.
func NewService(alloc *identifier.Allocator, pipe *render.Pipeline, writer PageWriter, sessions session.Log, log *logger.Logger, cfg Config) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		alloc:    alloc,
		pipe:     pipe,
		writer:   writer,
		sessions: sessions,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run executes one batch end to end.
//
// Configuration problems surface before any identifier is allocated. After
// allocation succeeds the issued numbers stay committed even when rendering
// or writing fails later: re-running the request issues fresh numbers
// rather than reusing ones that may already be on paper.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "batch.Run",
		trace.WithAttributes(
			attribute.String("variant", fmt.Sprintf("%s/%s/%s", req.Category, req.Product, req.Size)),
			attribute.Int("quantity", req.Quantity),
		))
	defer span.End()
	started := s.now().UTC()

	layoutCfg, err := s.resolveLayout(req)
	if err != nil {
		return Result{}, err
	}
	pct, err := resolveSymbolPercent(req.SymbolPercent)
	if err != nil {
		return Result{}, err
	}
	compCfg, err := s.resolveComposite(req.Composite, layoutCfg, pct)
	if err != nil {
		return Result{}, err
	}
	key := sequence.NewKey(req.Category, req.Product, req.Size)
	ids, err := s.alloc.Allocate(ctx, identifier.AllocateRequest{
		Key:           key,
		Period:        req.Period,
		Quantity:      req.Quantity,
		ExplicitStart: req.ExplicitStart,
	})
	if err != nil {
		return Result{}, err
	}
	if len(ids) == 0 {
		return Result{BatchID: id.New(), Identifiers: ids}, nil
	}

	log := s.log.WithContext(ctx)
	log.Infow("batch started",
		"variant", key.String(), "count", len(ids), "first", ids[0].Text)

	items, err := s.pipe.Render(ctx, ids, compCfg, render.Options{
		Concurrency: req.Concurrency,
		OnProgress:  req.OnProgress,
	})
	if err != nil {
		return Result{}, err
	}

	pages, err := layout.Plan(items, layoutCfg)
	if err != nil {
		return Result{}, err
	}

	artifact, err := s.writer.Write(ctx, buildDoc(pages, layoutCfg, pct))
	if err != nil {
		return Result{}, apperror.NewInternal(fmt.Errorf("write document: %w", err))
	}

	batchID := id.New()
	completed := s.now().UTC()
	sess := session.PrintSession{
		ID:          batchID,
		Variant:     key,
		Identifiers: texts(ids),
		Operator:    appctx.GetSubject(ctx),
		StartedAt:   started,
		CompletedAt: completed,
		PageCount:   len(pages),
	}
	if err := s.sessions.Append(ctx, sess); err != nil {
		// The document is already produced and the numbers committed, so
		// a failed history write must not void the batch.
		log.Errorw("session append failed", "error", err, "batch_id", batchID)
	}

	batchesCompletedTotal.Inc()
	pagesWrittenTotal.Add(float64(len(pages)))
	identifiersIssuedTotal.Add(float64(len(ids)))
	log.Infow("batch completed",
		"batch_id", batchID,
		"variant", key.String(),
		"count", len(ids),
		"pages", len(pages),
		"duration", completed.Sub(started))

	return Result{
		BatchID:     batchID,
		Identifiers: ids,
		PageCount:   len(pages),
		Document:    artifact,
	}, nil
}

// PlanPreview resolves the geometry and the prospective identifier run for
// a request as a dry run. The sequence store is read but never written.
func (s *Service) PlanPreview(ctx context.Context, req Request) (Preview, error) {
	layoutCfg, err := s.resolveLayout(req)
	if err != nil {
		return Preview{}, err
	}
	pct, err := resolveSymbolPercent(req.SymbolPercent)
	if err != nil {
		return Preview{}, err
	}

	ids, err := s.alloc.Plan(ctx, identifier.AllocateRequest{
		Key:           sequence.NewKey(req.Category, req.Product, req.Size),
		Period:        req.Period,
		Quantity:      req.Quantity,
		ExplicitStart: req.ExplicitStart,
	})
	if err != nil {
		return Preview{}, err
	}

	left, top := layoutCfg.Margins()
	perPage := layoutCfg.ItemsPerPage()
	pageCount := 0
	if req.Quantity > 0 {
		pageCount = (req.Quantity + perPage - 1) / perPage
	}
	edge := symbolEdgeMM(layoutCfg, pct)
	mm, _ := edge.Float64()

	return Preview{
		Layout:       layoutCfg,
		MarginLeft:   left,
		MarginTop:    top,
		ItemsPerPage: perPage,
		PageCount:    pageCount,
		SymbolSizeMM: mm,
		SymbolSizePx: pixelsForMM(edge),
		Identifiers:  texts(ids),
	}, nil
}

func (s *Service) resolveLayout(req Request) (layout.Config, error) {
	if req.Layout != nil {
		cfg := *req.Layout
		if err := cfg.Validate(); err != nil {
			return layout.Config{}, apperror.NewConfiguration(err.Error())
		}
		return cfg, nil
	}
	tpl, err := layout.ResolveTemplate(s.cfg.TemplatesDir, req.Template)
	if err != nil {
		return layout.Config{}, apperror.NewConfiguration(err.Error()).
			WithDetail("template", req.Template)
	}
	return tpl.Config(), nil
}

func (s *Service) resolveComposite(cfg symbol.CompositeConfig, layoutCfg layout.Config, pct decimal.Decimal) (symbol.CompositeConfig, error) {
	if cfg.Level == "" {
		cfg.Level = symbol.ECMedium
	}
	if cfg.LogoPercent == 0 {
		cfg.LogoPercent = DefaultCompositeLogoPercent
	}
	if cfg.PixelSize == 0 {
		cfg.PixelSize = pixelsForMM(symbolEdgeMM(layoutCfg, pct))
	}
	if cfg.LogoEnabled && cfg.Logo == nil {
		cfg.Logo = s.cfg.Logo
	}
	if err := cfg.Validate(); err != nil {
		return symbol.CompositeConfig{}, apperror.NewConfiguration(err.Error())
	}
	return cfg, nil
}

// DefaultCompositeLogoPercent mirrors the symbol package default for
// requests that enable the logo without sizing it.
const DefaultCompositeLogoPercent = 20

func resolveSymbolPercent(pct float64) (decimal.Decimal, error) {
	if pct == 0 {
		pct = DefaultSymbolPercent
	}
	if pct <= 0 || pct > 100 {
		return decimal.Decimal{}, apperror.NewConfiguration(
			fmt.Sprintf("symbol percent %v: must be inside (0, 100]", pct))
	}
	return decimal.NewFromFloat(pct), nil
}

// symbolEdgeMM returns the printed symbol edge: pct% of the label cell's
// short side.
func symbolEdgeMM(cfg layout.Config, pct decimal.Decimal) decimal.Decimal {
	short := decimal.NewFromFloat(cfg.LabelWidth)
	if cfg.LabelHeight < cfg.LabelWidth {
		short = decimal.NewFromFloat(cfg.LabelHeight)
	}
	return short.Mul(pct).Div(decimal.NewFromInt(100))
}

// pixelsForMM converts a physical edge to render pixels at the fixed DPI.
func pixelsForMM(mm decimal.Decimal) int {
	px := mm.Mul(decimal.NewFromInt(renderDPI)).Div(decimal.NewFromFloat(25.4))
	return int(px.Round(0).IntPart())
}

// buildDoc centers each symbol inside its label cell and converts layout
// pages into the page-writer's physical form.
func buildDoc(pages []layout.Page, cfg layout.Config, pct decimal.Decimal) Doc {
	edge := symbolEdgeMM(cfg, pct)
	two := decimal.NewFromInt(2)
	offX := decimal.NewFromFloat(cfg.LabelWidth).Sub(edge).Div(two)
	offY := decimal.NewFromFloat(cfg.LabelHeight).Sub(edge).Div(two)
	edgeF, _ := edge.Float64()

	doc := Doc{PageWidth: cfg.PageWidth, PageHeight: cfg.PageHeight}
	for _, page := range pages {
		out := Page{Placements: make([]Placement, 0, len(page.Placements))}
		for _, pl := range page.Placements {
			x, _ := decimal.NewFromFloat(pl.X).Add(offX).Float64()
			y, _ := decimal.NewFromFloat(pl.Y).Add(offY).Float64()
			out.Placements = append(out.Placements, Placement{
				Raster: pl.Item.Raster,
				X:      x,
				Y:      y,
				Width:  edgeF,
				Height: edgeF,
			})
		}
		doc.Pages = append(doc.Pages, out)
	}
	return doc
}

func texts(ids []identifier.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Text
	}
	return out
}
