// Package render drives the symbol compositor over an ordered identifier
// run under a bounded concurrency window.
package render

import (
	"context"
	"image"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
)

var tracer = otel.Tracer("bulkqr/render")

// DefaultConcurrency is the window size used when Options leaves it unset.
const DefaultConcurrency = 4

// Item pairs an identifier with its rendered raster. Produced once per
// identifier, in input order, and consumed by the layout engine.
type Item struct {
	Identifier identifier.Identifier
	Raster     image.Image
}

// ProgressFunc observes batch progress. Called after each completed window
// with a monotonically increasing completed count; the final call reports
// completed == total.
type ProgressFunc func(completed, total int)

// Options tunes one Render call.
type Options struct {
	// Concurrency is the window size. Items inside a window render in
	// parallel; windows always run one after another.
	Concurrency int

	// OnProgress, when set, is invoked after each window completes.
	OnProgress ProgressFunc
}

// Pipeline renders identifier runs into ordered raster sequences.
type Pipeline struct {
	comp *symbol.Compositor
}

// NewPipeline builds a pipeline over the given compositor.
func NewPipeline(comp *symbol.Compositor) *Pipeline {
	return &Pipeline{comp: comp}
}

// Render composites every identifier and returns the rasters in input order.
//
// The input is partitioned into contiguous windows of Options.Concurrency.
// Each window member writes to its pre-assigned result slot, so completion
// order inside a window never affects output order. Any member failure
// aborts the whole batch and discards results from earlier windows; a
// canceled context stops the pipeline between windows.
func (p *Pipeline) Render(ctx context.Context, ids []identifier.Identifier, cfg symbol.CompositeConfig, opts Options) ([]Item, error) {
	ctx, span := tracer.Start(ctx, "render.Render")
	defer span.End()

	if err := cfg.Validate(); err != nil {
		return nil, apperror.NewConfiguration(err.Error())
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	total := len(ids)
	span.SetAttributes(attribute.Int("total", total), attribute.Int("concurrency", limit))

	batchesTotal.Inc()
	started := time.Now()

	results := make([]Item, total)
	for start := 0; start < total; start += limit {
		if err := ctx.Err(); err != nil {
			batchCanceledTotal.Inc()
			return nil, apperror.NewCanceled(err)
		}

		end := start + limit
		if end > total {
			end = total
		}

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			item := ids[i]
			slot := i
			g.Go(func() error {
				raster, err := p.comp.Compose(item.Text, cfg)
				if err != nil {
					return err
				}
				results[slot] = Item{Identifier: item, Raster: raster}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			batchFailuresTotal.Inc()
			return nil, err
		}

		itemsRenderedTotal.Add(float64(end - start))
		if opts.OnProgress != nil {
			opts.OnProgress(end, total)
		}
	}

	batchSeconds.Observe(time.Since(started).Seconds())
	return results, nil
}
