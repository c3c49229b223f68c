package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pv2447407/bulkqr/internal/domain/batch"
	"github.com/pv2447407/bulkqr/internal/infrastructure/http/v1/dto"
)

// BatchHandler runs print batches over HTTP.
type BatchHandler struct {
	*BaseHandler
	service *batch.Service
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, service *batch.Service) *BatchHandler {
	return &BatchHandler{BaseHandler: base, service: service}
}

// Generate runs a batch and streams the resulting PDF.
// POST /api/v1/batches
//
// The batch identity and page count travel in headers so clients can
// record them without parsing the document.
func (h *BatchHandler) Generate(c *gin.Context) {
	var req dto.BatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Run(c.Request.Context(), req.ToRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Header("X-Batch-Id", result.BatchID.String())
	if len(result.Identifiers) == 0 {
		// Quantity zero: nothing allocated, nothing printed.
		c.Status(http.StatusNoContent)
		return
	}

	c.Header("X-Page-Count", strconv.Itoa(result.PageCount))
	c.Header("X-Identifier-Count", strconv.Itoa(len(result.Identifiers)))
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("labels-%s.pdf", result.BatchID)))
	c.Data(http.StatusOK, "application/pdf", result.Document)
}

// Preview dry-runs a request: sheet geometry plus the identifier run the
// batch would issue, without allocating or rendering anything.
// POST /api/v1/batches/preview
func (h *BatchHandler) Preview(c *gin.Context) {
	var req dto.BatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	preview, err := h.service.PlanPreview(c.Request.Context(), req.ToRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, preview)
}
