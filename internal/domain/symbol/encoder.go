// Package symbol renders identifier text into scannable rasters and
// composites the brand logo onto them.
package symbol

import "image"

// ECLevel is the error correction level of the encoded symbol.
// Higher levels tolerate more obscured area at the cost of density.
type ECLevel string

const (
	ECLow      ECLevel = "L"
	ECMedium   ECLevel = "M"
	ECQuartile ECLevel = "Q"
	ECHigh     ECLevel = "H"
)

// Valid reports whether the level is one of L, M, Q, H.
func (l ECLevel) Valid() bool {
	switch l {
	case ECLow, ECMedium, ECQuartile, ECHigh:
		return true
	}
	return false
}

// Encoder turns identifier text into a square raster symbol.
// Implementations live in the infrastructure layer; the pixel size is the
// edge length of the produced image.
type Encoder interface {
	Encode(text string, level ECLevel, pixelSize int) (image.Image, error)
}
