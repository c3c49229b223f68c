package dto

import (
	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/domain/layout"
	"github.com/pv2447407/bulkqr/internal/domain/symbol"
)

// BatchRequest describes a print batch submission.
//
// Quantity zero is accepted and produces no document, mirroring the
// allocator's no-op contract.
type BatchRequest struct {
	Category string `json:"category" binding:"required"`
	Product  string `json:"product" binding:"required"`
	Size     string `json:"size" binding:"required"`
	Period   string `json:"period"`

	Quantity      int   `json:"quantity" binding:"min=0"`
	ExplicitStart int64 `json:"explicitStart" binding:"min=0"`

	// Template names a sheet template; Layout overrides it when set.
	Template string         `json:"template"`
	Layout   *layout.Config `json:"layout"`

	// Symbol rendering overrides. Omitted fields fall back to service
	// defaults: medium error correction, logo on, 20% logo, 2px padding.
	ECLevel       string  `json:"ecLevel"`
	LogoEnabled   *bool   `json:"logoEnabled"`
	LogoPercent   float64 `json:"logoPercent" binding:"min=0"`
	PaddingPixels *int    `json:"paddingPixels"`
	SymbolPercent float64 `json:"symbolPercent" binding:"min=0"`

	Concurrency int `json:"concurrency" binding:"min=0"`
}

// ToRequest converts the DTO into a batch request.
func (r BatchRequest) ToRequest() batch.Request {
	comp := symbol.CompositeConfig{
		Level:         symbol.ECLevel(r.ECLevel),
		LogoEnabled:   true,
		LogoPercent:   r.LogoPercent,
		PaddingPixels: symbol.DefaultCompositeConfig().PaddingPixels,
	}
	if r.LogoEnabled != nil {
		comp.LogoEnabled = *r.LogoEnabled
	}
	if r.PaddingPixels != nil {
		comp.PaddingPixels = *r.PaddingPixels
	}

	return batch.Request{
		Category:      r.Category,
		Product:       r.Product,
		Size:          r.Size,
		Period:        r.Period,
		Quantity:      r.Quantity,
		ExplicitStart: r.ExplicitStart,
		Template:      r.Template,
		Layout:        r.Layout,
		Composite:     comp,
		SymbolPercent: r.SymbolPercent,
		Concurrency:   r.Concurrency,
	}
}

