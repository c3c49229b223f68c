package render

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
)

func testRun(n int) []identifier.Identifier {
	f := identifier.DefaultFormat()
	ids := make([]identifier.Identifier, n)
	for i := 0; i < n; i++ {
		ids[i] = f.Make("RE", "L", "2501", int64(i+1))
	}
	return ids
}

func testConfig() symbol.CompositeConfig {
	cfg := symbol.DefaultCompositeConfig()
	cfg.PixelSize = 16
	cfg.LogoEnabled = false
	return cfg
}

func TestRenderPreservesInputOrder(t *testing.T) {
	// Earlier identifiers take longer, so inside each window the later
	// members finish compositing first.
	format := identifier.DefaultFormat()
	enc := &symbol.MockEncoder{
		EncodeFunc: func(text string, level symbol.ECLevel, pixelSize int) (image.Image, error) {
			id, err := format.Parse(text)
			if err != nil {
				return nil, err
			}
			time.Sleep(time.Duration(12-id.Seq) * 2 * time.Millisecond)
			return symbol.Checkerboard(pixelSize), nil
		},
	}
	p := NewPipeline(symbol.NewCompositor(enc))

	ids := testRun(10)
	items, err := p.Render(context.Background(), ids, testConfig(), Options{Concurrency: 4})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(items) != len(ids) {
		t.Fatalf("got %d items, want %d", len(items), len(ids))
	}
	for i, item := range items {
		if item.Identifier.Seq != int64(i+1) {
			t.Errorf("items[%d].Seq = %d, want %d", i, item.Identifier.Seq, i+1)
		}
		if item.Raster == nil {
			t.Errorf("items[%d] has no raster", i)
		}
	}
}

func TestRenderProgressPerWindow(t *testing.T) {
	p := NewPipeline(symbol.NewCompositor(&symbol.MockEncoder{}))

	var calls [][2]int
	opts := Options{
		Concurrency: 4,
		OnProgress: func(completed, total int) {
			calls = append(calls, [2]int{completed, total})
		},
	}
	if _, err := p.Render(context.Background(), testRun(10), testConfig(), opts); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	want := [][2]int{{4, 10}, {8, 10}, {10, 10}}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("progress calls = %v, want %v", calls, want)
		}
	}
}

func TestRenderAbortsWholeBatchOnFailure(t *testing.T) {
	boom := errors.New("symbol overflow")
	format := identifier.DefaultFormat()
	enc := &symbol.MockEncoder{
		EncodeFunc: func(text string, level symbol.ECLevel, pixelSize int) (image.Image, error) {
			id, _ := format.Parse(text)
			if id.Seq == 5 {
				return nil, boom
			}
			return symbol.Checkerboard(pixelSize), nil
		},
	}
	p := NewPipeline(symbol.NewCompositor(enc))

	var progress []int
	opts := Options{
		Concurrency: 3,
		OnProgress:  func(completed, total int) { progress = append(progress, completed) },
	}
	items, err := p.Render(context.Background(), testRun(9), testConfig(), opts)

	if !apperror.IsCode(err, apperror.CodeEncoding) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeEncoding)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error chain lost the cause: %v", err)
	}
	appErr, _ := apperror.AsAppError(err)
	if appErr.Details["identifier"] != "RMT-REL-2501-005" {
		t.Errorf("details = %v, want offending identifier", appErr.Details)
	}
	if items != nil {
		t.Errorf("partial results returned: %d items", len(items))
	}
	// Only the window before the failing one reported progress.
	if len(progress) != 1 || progress[0] != 3 {
		t.Errorf("progress = %v, want [3]", progress)
	}
}

func TestRenderCancellationBetweenWindows(t *testing.T) {
	p := NewPipeline(symbol.NewCompositor(&symbol.MockEncoder{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var progress []int
	opts := Options{
		Concurrency: 2,
		OnProgress: func(completed, total int) {
			progress = append(progress, completed)
			cancel()
		},
	}
	items, err := p.Render(ctx, testRun(6), testConfig(), opts)

	if !apperror.IsCode(err, apperror.CodeCanceled) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeCanceled)
	}
	if items != nil {
		t.Errorf("results returned after cancellation: %d items", len(items))
	}
	if len(progress) != 1 || progress[0] != 2 {
		t.Errorf("progress = %v, want [2]", progress)
	}
}

func TestRenderEmptyInput(t *testing.T) {
	encodes := atomic.Int32{}
	enc := &symbol.MockEncoder{
		EncodeFunc: func(text string, level symbol.ECLevel, pixelSize int) (image.Image, error) {
			encodes.Add(1)
			return symbol.Checkerboard(pixelSize), nil
		},
	}
	p := NewPipeline(symbol.NewCompositor(enc))

	progressCalls := 0
	opts := Options{OnProgress: func(completed, total int) { progressCalls++ }}
	items, err := p.Render(context.Background(), nil, testConfig(), opts)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if len(items) != 0 || encodes.Load() != 0 || progressCalls != 0 {
		t.Errorf("empty input did work: items=%d encodes=%d progress=%d",
			len(items), encodes.Load(), progressCalls)
	}
}

func TestRenderDefaultConcurrency(t *testing.T) {
	p := NewPipeline(symbol.NewCompositor(&symbol.MockEncoder{}))

	var first int
	opts := Options{OnProgress: func(completed, total int) {
		if first == 0 {
			first = completed
		}
	}}
	if _, err := p.Render(context.Background(), testRun(8), testConfig(), opts); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if first != DefaultConcurrency {
		t.Errorf("first window completed %d items, want %d", first, DefaultConcurrency)
	}
}

func TestRenderRejectsBadConfig(t *testing.T) {
	encodes := atomic.Int32{}
	enc := &symbol.MockEncoder{
		EncodeFunc: func(text string, level symbol.ECLevel, pixelSize int) (image.Image, error) {
			encodes.Add(1)
			return symbol.Checkerboard(pixelSize), nil
		},
	}
	p := NewPipeline(symbol.NewCompositor(enc))

	cfg := testConfig()
	cfg.PixelSize = 0
	_, err := p.Render(context.Background(), testRun(3), cfg, Options{})
	if !apperror.IsCode(err, apperror.CodeConfiguration) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeConfiguration)
	}
	if encodes.Load() != 0 {
		t.Errorf("encoder invoked %d times before config rejection", encodes.Load())
	}
}
