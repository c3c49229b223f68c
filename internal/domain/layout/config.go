// Package layout tiles rendered symbols onto printable label sheets.
//
// All physical dimensions are millimeters. Grid math runs on exact decimal
// arithmetic so that centered margins come out as clean printable offsets
// instead of float artifacts.
package layout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config describes one sheet geometry.
type Config struct {
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`

	Rows int `json:"rows"`
	Cols int `json:"cols"`

	LabelWidth  float64 `json:"labelWidth"`
	LabelHeight float64 `json:"labelHeight"`

	GapHorizontal float64 `json:"gapHorizontal"`
	GapVertical   float64 `json:"gapVertical"`

	// AutoMargins centers the grid on the page. When false, MarginLeft and
	// MarginTop are used verbatim and the caller keeps the grid on-page.
	AutoMargins bool    `json:"autoMargins"`
	MarginLeft  float64 `json:"marginLeft"`
	MarginTop   float64 `json:"marginTop"`
}

// DefaultConfig returns the reference sheet: A4 portrait, 9 rows by 7 cols
// of 25.4mm square labels, grid centered.
func DefaultConfig() Config {
	return Config{
		PageWidth:   210,
		PageHeight:  297,
		Rows:        9,
		Cols:        7,
		LabelWidth:  25.4,
		LabelHeight: 25.4,
		AutoMargins: true,
	}
}

// ItemsPerPage returns the grid capacity of one sheet.
func (c Config) ItemsPerPage() int {
	return c.Rows * c.Cols
}

// Validate checks the sheet geometry. The grid itself must fit the page;
// explicit margins are deliberately not checked against remaining space.
func (c Config) Validate() error {
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return fmt.Errorf("page %vx%v: dimensions must be positive", c.PageWidth, c.PageHeight)
	}
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("grid %dx%d: rows and cols must be at least 1", c.Rows, c.Cols)
	}
	if c.LabelWidth <= 0 || c.LabelHeight <= 0 {
		return fmt.Errorf("label %vx%v: dimensions must be positive", c.LabelWidth, c.LabelHeight)
	}
	if c.GapHorizontal < 0 || c.GapVertical < 0 {
		return fmt.Errorf("gaps %v/%v: must not be negative", c.GapHorizontal, c.GapVertical)
	}
	if !c.AutoMargins && (c.MarginLeft < 0 || c.MarginTop < 0) {
		return fmt.Errorf("margins %v/%v: must not be negative", c.MarginLeft, c.MarginTop)
	}

	gridW, gridH := c.gridSize()
	if gridW.GreaterThan(decimal.NewFromFloat(c.PageWidth)) {
		return fmt.Errorf("grid width %smm exceeds page width %vmm", gridW, c.PageWidth)
	}
	if gridH.GreaterThan(decimal.NewFromFloat(c.PageHeight)) {
		return fmt.Errorf("grid height %smm exceeds page height %vmm", gridH, c.PageHeight)
	}
	return nil
}

// gridSize returns the exact footprint of the full label grid.
func (c Config) gridSize() (w, h decimal.Decimal) {
	cols := decimal.NewFromInt(int64(c.Cols))
	rows := decimal.NewFromInt(int64(c.Rows))
	w = decimal.NewFromFloat(c.LabelWidth).Mul(cols).
		Add(decimal.NewFromFloat(c.GapHorizontal).Mul(cols.Sub(decimal.NewFromInt(1))))
	h = decimal.NewFromFloat(c.LabelHeight).Mul(rows).
		Add(decimal.NewFromFloat(c.GapVertical).Mul(rows.Sub(decimal.NewFromInt(1))))
	return w, h
}

// Margins returns the effective top-left grid origin for a valid config.
// Auto mode centers the grid: (210 - 7*25.4)/2 = 16.1 exactly.
func (c Config) Margins() (left, top float64) {
	if !c.AutoMargins {
		return c.MarginLeft, c.MarginTop
	}
	gridW, gridH := c.gridSize()
	two := decimal.NewFromInt(2)
	l := decimal.NewFromFloat(c.PageWidth).Sub(gridW).Div(two)
	t := decimal.NewFromFloat(c.PageHeight).Sub(gridH).Div(two)
	left, _ = l.Float64()
	top, _ = t.Float64()
	return left, top
}
