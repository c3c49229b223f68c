package symbol

import (
	"image"
	"image/color"
)

// MockEncoder is a test implementation of Encoder.
// The default behavior produces a deterministic checkerboard so tests can
// verify rasters byte for byte without a real symbol library.
type MockEncoder struct {
	EncodeFunc func(text string, level ECLevel, pixelSize int) (image.Image, error)
}

// Encode implements Encoder.
func (m *MockEncoder) Encode(text string, level ECLevel, pixelSize int) (image.Image, error) {
	if m.EncodeFunc != nil {
		return m.EncodeFunc(text, level, pixelSize)
	}
	return Checkerboard(pixelSize), nil
}

// Checkerboard builds a deterministic black and white test raster.
func Checkerboard(edge int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, edge, edge))
	for y := 0; y < edge; y++ {
		for x := 0; x < edge; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if (x/4+y/4)%2 == 0 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Ensure compile-time interface compliance.
var _ Encoder = (*MockEncoder)(nil)
