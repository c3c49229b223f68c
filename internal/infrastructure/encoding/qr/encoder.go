// Package qr adapts the go-qrcode library to the symbol encoder contract.
package qr

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/pv2447407/bulkqr/internal/domain/symbol"
)

// Encoder renders identifier text as QR symbols.
type Encoder struct{}

// NewEncoder creates a QR encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode implements symbol.Encoder. The returned raster is pixelSize edge
// length with the module grid centered inside the quiet zone.
func (e *Encoder) Encode(text string, level symbol.ECLevel, pixelSize int) (image.Image, error) {
	q, err := qrcode.New(text, recovery(level))
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", text, err)
	}
	return q.Image(pixelSize), nil
}

// recovery maps the domain error correction levels onto go-qrcode's scale,
// where High is the 25% tier (Q) and Highest the 30% tier (H).
func recovery(level symbol.ECLevel) qrcode.RecoveryLevel {
	switch level {
	case symbol.ECLow:
		return qrcode.Low
	case symbol.ECQuartile:
		return qrcode.High
	case symbol.ECHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// Ensure compile-time interface compliance.
var _ symbol.Encoder = (*Encoder)(nil)
