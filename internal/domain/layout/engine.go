package layout

import (
	"github.com/shopspring/decimal"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/domain/render"
)

// Placement positions one rendered symbol on a page. X and Y are the
// label cell's top-left corner in millimeters from the page origin.
type Placement struct {
	Item render.Item
	X    float64
	Y    float64
}

// Page is one sheet worth of placements, in physical reading order.
type Page struct {
	Index      int
	Placements []Placement
}

// Plan computes absolute placements for every item across as many pages as
// needed. Items fill each page row-major: left to right, top to bottom.
// The rasters are placed as-is; sizing them to the label cell is the
// caller's concern.
func Plan(items []render.Item, cfg Config) ([]Page, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperror.NewConfiguration(err.Error())
	}

	perPage := cfg.ItemsPerPage()
	left, top := cfg.Margins()

	originX := decimal.NewFromFloat(left)
	originY := decimal.NewFromFloat(top)
	stepX := decimal.NewFromFloat(cfg.LabelWidth).Add(decimal.NewFromFloat(cfg.GapHorizontal))
	stepY := decimal.NewFromFloat(cfg.LabelHeight).Add(decimal.NewFromFloat(cfg.GapVertical))

	pageCount := (len(items) + perPage - 1) / perPage
	pages := make([]Page, 0, pageCount)

	for i, item := range items {
		pos := i % perPage
		if pos == 0 {
			pages = append(pages, Page{Index: len(pages)})
		}
		row := pos / cfg.Cols
		col := pos % cfg.Cols

		x := originX.Add(stepX.Mul(decimal.NewFromInt(int64(col))))
		y := originY.Add(stepY.Mul(decimal.NewFromInt(int64(row))))

		xf, _ := x.Float64()
		yf, _ := y.Float64()
		page := &pages[len(pages)-1]
		page.Placements = append(page.Placements, Placement{Item: item, X: xf, Y: yf})
	}
	return pages, nil
}
