// Package batch orchestrates one print request end to end: allocate
// identifiers, render symbols, lay out pages, emit the document, record
// the session.
package batch

import (
	"context"
	"image"
)

// Placement positions one raster on a document page. All values are
// millimeters from the page's top-left corner.
type Placement struct {
	Raster image.Image
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Page is one sheet of placements in reading order.
type Page struct {
	Placements []Placement
}

// Doc is the page-writer input: a fixed physical canvas plus ordered pages.
type Doc struct {
	PageWidth  float64
	PageHeight float64
	Pages      []Page
}

// PageWriter turns positioned rasters into an opaque document artifact.
// Implementations live in the infrastructure layer.
type PageWriter interface {
	Write(ctx context.Context, doc Doc) ([]byte, error)
}

// MockWriter is a test implementation of PageWriter.
type MockWriter struct {
	WriteFunc func(ctx context.Context, doc Doc) ([]byte, error)

	// Docs collects every written document when WriteFunc is nil.
	Docs []Doc
}

// Write implements PageWriter.
func (m *MockWriter) Write(ctx context.Context, doc Doc) ([]byte, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, doc)
	}
	m.Docs = append(m.Docs, doc)
	return []byte("%PDF-mock"), nil
}

// Ensure compile-time interface compliance.
var _ PageWriter = (*MockWriter)(nil)
