package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/core/sequence"
	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/infrastructure/http/v1/dto"
)

// SequenceHandler exposes variant counters and gap analysis.
type SequenceHandler struct {
	*BaseHandler
	store sequence.Store
	alloc *identifier.Allocator
}

// NewSequenceHandler creates a new sequence handler.
func NewSequenceHandler(base *BaseHandler, store sequence.Store, alloc *identifier.Allocator) *SequenceHandler {
	return &SequenceHandler{BaseHandler: base, store: store, alloc: alloc}
}

// List returns every known variant counter.
// GET /api/v1/sequences
func (h *SequenceHandler) List(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.Error(c, apperror.NewStore(err))
		return
	}

	items := make([]dto.SequenceResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.FromRecord(rec))
	}
	h.OK(c, dto.NewListResponse(items))
}

// Gaps reports the numbers skipped below a variant's counter.
// GET /api/v1/sequences/gaps?category=&product=&size=
func (h *SequenceHandler) Gaps(c *gin.Context) {
	var query dto.VariantQuery
	if !h.BindQuery(c, &query) {
		return
	}

	report, err := h.alloc.Gaps(c.Request.Context(), query.Key())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGapReport(report))
}

// SetNext moves a variant counter so the next allocation starts at the
// given number. The counter never moves backwards.
// PUT /api/v1/sequences/next
func (h *SequenceHandler) SetNext(c *gin.Context) {
	var req dto.SetNextRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.alloc.SetNext(c.Request.Context(), req.Key(), req.Next)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecord(rec))
}
