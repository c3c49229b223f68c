package symbol

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
)

// CompositeConfig controls symbol rendering and logo placement.
type CompositeConfig struct {
	// PixelSize is the edge length of the rendered symbol in pixels.
	PixelSize int `json:"pixelSize"`

	// Level is the error correction level (L, M, Q, H).
	Level ECLevel `json:"level"`

	// LogoEnabled turns logo compositing on. When false, or when Logo is
	// nil, the encoder output is returned untouched.
	LogoEnabled bool `json:"logoEnabled"`

	// Logo is the brand mark drawn at the symbol's center. It is rescaled
	// to LogoPercent of the symbol's edge length.
	Logo image.Image `json:"-"`

	// LogoPercent is the logo edge length as a percentage of the symbol
	// edge length, exclusive bounds (0, 100).
	LogoPercent float64 `json:"logoPercent"`

	// PaddingPixels is the opaque quiet border painted around the logo so
	// its pattern is not read as code modules. Zero disables the backdrop.
	PaddingPixels int `json:"paddingPixels"`
}

// DefaultCompositeConfig returns the reference configuration: medium error
// correction, logo at 20% of the symbol with a 2 pixel quiet border.
func DefaultCompositeConfig() CompositeConfig {
	return CompositeConfig{
		PixelSize:     256,
		Level:         ECMedium,
		LogoEnabled:   true,
		LogoPercent:   20,
		PaddingPixels: 2,
	}
}

// Validate checks the configuration, independent of any logo raster.
func (c CompositeConfig) Validate() error {
	if c.PixelSize <= 0 {
		return fmt.Errorf("pixel size %d: must be positive", c.PixelSize)
	}
	if !c.Level.Valid() {
		return fmt.Errorf("error correction level %q: want one of L, M, Q, H", c.Level)
	}
	if c.LogoPercent <= 0 || c.LogoPercent >= 100 {
		return fmt.Errorf("logo percent %v: must be inside (0, 100)", c.LogoPercent)
	}
	if c.PaddingPixels < 0 {
		return fmt.Errorf("logo padding %d: must not be negative", c.PaddingPixels)
	}
	return nil
}

// Compositor renders one identifier into its final raster.
//
// Compose is a pure function of its inputs given a deterministic encoder;
// the encoder output is never mutated.
type Compositor struct {
	enc Encoder
}

// NewCompositor builds a compositor over the given encoder.
func NewCompositor(enc Encoder) *Compositor {
	return &Compositor{enc: enc}
}

// Compose encodes text and, when enabled, draws the logo over the symbol's
// geometric center on an opaque padded backdrop.
func (c *Compositor) Compose(text string, cfg CompositeConfig) (image.Image, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperror.NewConfiguration(err.Error()).WithDetail("identifier", text)
	}

	base, err := c.enc.Encode(text, cfg.Level, cfg.PixelSize)
	if err != nil {
		return nil, apperror.NewEncoding(text, err)
	}

	if !cfg.LogoEnabled || cfg.Logo == nil {
		return base, nil
	}
	if cfg.Logo.Bounds().Empty() {
		return nil, apperror.NewComposition(text, errors.New("logo raster is empty"))
	}

	bounds := base.Bounds()
	edge := bounds.Dx()
	if bounds.Dy() < edge {
		edge = bounds.Dy()
	}
	logoEdge := int(math.Round(float64(edge) * cfg.LogoPercent / 100))
	if logoEdge < 1 {
		logoEdge = 1
	}

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)

	center := bounds.Min.Add(image.Pt(bounds.Dx()/2, bounds.Dy()/2))
	if cfg.PaddingPixels > 0 {
		back := centeredSquare(center, logoEdge+2*cfg.PaddingPixels)
		draw.Draw(out, back.Intersect(bounds), image.White, image.Point{}, draw.Src)
	}

	logoRect := centeredSquare(center, logoEdge)
	xdraw.BiLinear.Scale(out, logoRect, cfg.Logo, cfg.Logo.Bounds(), xdraw.Over, nil)

	return out, nil
}

// centeredSquare returns the edge*edge rectangle whose center is at c.
func centeredSquare(c image.Point, edge int) image.Rectangle {
	half := edge / 2
	return image.Rect(c.X-half, c.Y-half, c.X-half+edge, c.Y-half+edge)
}
