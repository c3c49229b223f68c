// Package pdf adapts go-pdf/fpdf to the batch page-writer contract.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/go-pdf/fpdf"

	"github.com/pv2447407/bulkqr/internal/domain/batch"
)

// Writer emits label sheets as a PDF document. Pages use the physical
// millimeter canvas carried by the doc, no scaling or margins of its own.
type Writer struct{}

// NewWriter creates a PDF page writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write implements batch.PageWriter.
func (w *Writer) Write(ctx context.Context, doc batch.Doc) ([]byte, error) {
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: doc.PageWidth, Ht: doc.PageHeight},
	})
	pdf.SetCompression(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	n := 0
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pdf.AddPage()
		for _, pl := range page.Placements {
			name := fmt.Sprintf("raster-%d", n)
			n++

			var buf bytes.Buffer
			if err := png.Encode(&buf, pl.Raster); err != nil {
				return nil, fmt.Errorf("encode raster %s: %w", name, err)
			}
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, &buf)
			pdf.ImageOptions(name, pl.X, pl.Y, pl.Width, pl.Height, false, opts, 0, "")
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("build document: %w", pdf.Error())
	}
	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return out.Bytes(), nil
}

// Ensure compile-time interface compliance.
var _ batch.PageWriter = (*Writer)(nil)
