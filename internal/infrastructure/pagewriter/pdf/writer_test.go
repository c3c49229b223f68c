package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
)

func testDoc(pages, perPage int) batch.Doc {
	doc := batch.Doc{PageWidth: 210, PageHeight: 297}
	for p := 0; p < pages; p++ {
		page := batch.Page{}
		for i := 0; i < perPage; i++ {
			page.Placements = append(page.Placements, batch.Placement{
				Raster: symbol.Checkerboard(32),
				X:      float64(16 + i*26),
				Y:      34,
				Width:  17.78,
				Height: 17.78,
			})
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

func TestWriteProducesPDF(t *testing.T) {
	w := NewWriter()

	out, err := w.Write(context.Background(), testDoc(2, 3))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with PDF header")
	}
	if !bytes.Contains(out, []byte("%%EOF")) {
		t.Errorf("output has no PDF trailer")
	}
	if !bytes.Contains(out, []byte("/Count 2")) {
		t.Errorf("page tree does not report 2 pages")
	}
}

func TestWriteEmptyDocument(t *testing.T) {
	if _, err := NewWriter().Write(context.Background(), batch.Doc{PageWidth: 210, PageHeight: 297}); err == nil {
		t.Error("Write() succeeded on empty document, want error")
	}
}

func TestWriteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewWriter().Write(ctx, testDoc(1, 1)); err == nil {
		t.Error("Write() succeeded with canceled context, want error")
	}
}
