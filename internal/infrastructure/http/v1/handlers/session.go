package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pv2447407/bulkqr/internal/core/apperror"
	"github.com/pv2447407/bulkqr/internal/domain/session"
	"github.com/pv2447407/bulkqr/internal/infrastructure/http/v1/dto"
)

// SessionHandler exposes print session history.
type SessionHandler struct {
	*BaseHandler
	log session.Log
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *BaseHandler, log session.Log) *SessionHandler {
	return &SessionHandler{BaseHandler: base, log: log}
}

// List returns print sessions, newest first.
// GET /api/v1/sessions?limit=
func (h *SessionHandler) List(c *gin.Context) {
	var query dto.SessionListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	sessions, err := h.log.List(c.Request.Context(), query.Limit)
	if err != nil {
		h.Error(c, apperror.NewStore(err))
		return
	}

	items := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, dto.FromSession(s))
	}
	h.OK(c, dto.NewListResponse(items))
}
