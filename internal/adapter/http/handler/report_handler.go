package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*usecase.SalesSummary, error)
	ReconcileRegister(ctx context.Context, registerID string) (*usecase.RegisterReconciliation, error)
	VerifyHolder(ctx context.Context, ref domain.HolderRef) (*usecase.HolderVerification, error)
	VerifyLedger(ctx context.Context, kind domain.HolderKind, limit, offset int) ([]*usecase.HolderVerification, error)
	HolderHistory(ctx context.Context, ref domain.HolderRef, limit, offset int) ([]*domain.LedgerEntry, error)
	ReferenceHistory(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error)
}

// ReportHandler handles reporting and ledger-verification HTTP requests.
type ReportHandler struct {
	reportUC ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC}
}

// SalesSummary aggregates completed sales over a period.
func (h *ReportHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from parameter", "expected RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to parameter", "expected RFC3339 timestamp")
		return
	}

	summary, err := h.reportUC.SalesSummary(r.Context(), from, to)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to summarize sales", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ReconcileRegister cross-checks one register's drawer three ways.
func (h *ReportHandler) ReconcileRegister(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportUC.ReconcileRegister(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile register", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// VerifyHolder replays one holder's ledger against its balance.
func (h *ReportHandler) VerifyHolder(w http.ResponseWriter, r *http.Request) {
	ref := domain.HolderRef{
		Kind: domain.HolderKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "id"),
	}

	verification, err := h.reportUC.VerifyHolder(r.Context(), ref)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify holder", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, verification)
}

// VerifyLedger replays every holder of one kind and reports mismatches.
func (h *ReportHandler) VerifyLedger(w http.ResponseWriter, r *http.Request) {
	kind := domain.HolderKind(chi.URLParam(r, "kind"))
	limit := parseIntQuery(r, "limit", 100)
	offset := parseIntQuery(r, "offset", 0)

	broken, err := h.reportUC.VerifyLedger(r.Context(), kind, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify ledger", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":       kind,
		"mismatches": broken,
		"consistent": len(broken) == 0,
	})
}

// HolderHistory lists one holder's ledger entries, newest first.
func (h *ReportHandler) HolderHistory(w http.ResponseWriter, r *http.Request) {
	ref := domain.HolderRef{
		Kind: domain.HolderKind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "id"),
	}
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.reportUC.HolderHistory(r.Context(), ref, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list ledger entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.LedgerEntriesFromDomain(entries)))
}

// ReferenceHistory lists every ledger entry tied to one document.
func (h *ReportHandler) ReferenceHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reportUC.ReferenceHistory(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list ledger entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.LedgerEntriesFromDomain(entries)))
}
