package dto

import (
	"time"

	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
)

// SequenceResponse is one variant counter.
type SequenceResponse struct {
	Category  string    `json:"category"`
	Product   string    `json:"product"`
	Size      string    `json:"size"`
	LastID    int64     `json:"lastId"`
	PeriodTag string    `json:"periodTag"`
	Issued    string    `json:"issued"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromRecord creates SequenceResponse from a sequence record.
func FromRecord(rec sequence.Record) SequenceResponse {
	return SequenceResponse{
		Category:  rec.Key.Category,
		Product:   rec.Key.Product,
		Size:      rec.Key.Size,
		LastID:    rec.LastID,
		PeriodTag: rec.PeriodTag,
		Issued:    rec.Issued.String(),
		UpdatedAt: rec.UpdatedAt,
	}
}

// VariantQuery selects one variant.
type VariantQuery struct {
	Category string `form:"category" binding:"required"`
	Product  string `form:"product" binding:"required"`
	Size     string `form:"size" binding:"required"`
}

// Key converts the query into a sequence key.
func (q VariantQuery) Key() sequence.Key {
	return sequence.NewKey(q.Category, q.Product, q.Size)
}

// GapsResponse reports numbers skipped below a variant's counter.
type GapsResponse struct {
	Category string  `json:"category"`
	Product  string  `json:"product"`
	Size     string  `json:"size"`
	LastID   int64   `json:"lastId"`
	Missing  []int64 `json:"missing"`
}

// FromGapReport creates GapsResponse from a gap report.
func FromGapReport(report identifier.GapReport) GapsResponse {
	return GapsResponse{
		Category: report.Key.Category,
		Product:  report.Key.Product,
		Size:     report.Key.Size,
		LastID:   report.LastID,
		Missing:  report.Missing,
	}
}

// SetNextRequest moves a variant counter so the next allocation starts
// at the given number.
type SetNextRequest struct {
	Category string `json:"category" binding:"required"`
	Product  string `json:"product" binding:"required"`
	Size     string `json:"size" binding:"required"`
	Next     int64  `json:"next" binding:"required,min=1"`
}

// Key converts the request into a sequence key.
func (r SetNextRequest) Key() sequence.Key {
	return sequence.NewKey(r.Category, r.Product, r.Size)
}
