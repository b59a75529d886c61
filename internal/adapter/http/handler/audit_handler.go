package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AuditHandler handles audit-trail HTTP requests.
type AuditHandler struct {
	auditUC AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditUC AuditService) *AuditHandler {
	return &AuditHandler{auditUC: auditUC}
}

// List lists audit logs with optional filters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		ActorID:    r.URL.Query().Get("actor_id"),
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
		Limit:      parseIntQuery(r, "limit", 20),
		Offset:     parseIntQuery(r, "offset", 0),
	}
	if start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start_date")); err == nil {
		filter.StartDate = &start
	}
	if end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end_date")); err == nil {
		filter.EndDate = &end
	}

	logs, err := h.auditUC.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.AuditLogsFromDomain(logs)))
}
