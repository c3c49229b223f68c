package dto

import (
	"time"

	"github.com/pv2447407/bulkqr/internal/domain/session"
)

// SessionResponse is one print session history entry.
type SessionResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Product     string    `json:"product"`
	Size        string    `json:"size"`
	Identifiers []string  `json:"identifiers"`
	Count       int       `json:"count"`
	Operator    string    `json:"operator,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	PageCount   int       `json:"pageCount"`
}

// FromSession creates SessionResponse from a print session.
func FromSession(s session.PrintSession) SessionResponse {
	return SessionResponse{
		ID:          s.ID.String(),
		Category:    s.Variant.Category,
		Product:     s.Variant.Product,
		Size:        s.Variant.Size,
		Identifiers: s.Identifiers,
		Count:       s.Count(),
		Operator:    s.Operator,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		PageCount:   s.PageCount,
	}
}

// SessionListQuery bounds the history listing.
type SessionListQuery struct {
	Limit int `form:"limit" binding:"min=0"`
}
