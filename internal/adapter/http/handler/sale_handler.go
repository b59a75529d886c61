package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// SaleService defines the behavior needed by SaleHandler.
type SaleService interface {
	Checkout(ctx context.Context, input usecase.CheckoutInput) (*domain.Sale, error)
	Void(ctx context.Context, input usecase.VoidInput) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, filter usecase.SaleFilter) ([]*domain.Sale, error)
}

// SaleReturnService lists returns for one sale.
type SaleReturnService interface {
	ListReturnsBySale(ctx context.Context, saleID string) ([]*domain.Return, error)
}

// SaleHandler handles sale HTTP requests.
type SaleHandler struct {
	saleUC   SaleService
	returnUC SaleReturnService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleUC SaleService, returnUC SaleReturnService) *SaleHandler {
	return &SaleHandler{saleUC: saleUC, returnUC: returnUC}
}

// Checkout completes a sale.
func (h *SaleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := requestActor(r)
	input := req.ToUseCaseInput()
	input.ActorID = actor.ID
	input.ActorName = actor.Name
	input.IPAddress = actor.IP

	sale, err := h.saleUC.Checkout(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "checkout failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SaleFromDomain(sale))
}

// Void reverses a completed sale in full.
func (h *SaleHandler) Void(w http.ResponseWriter, r *http.Request) {
	var req dto.VoidSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := requestActor(r)
	sale, err := h.saleUC.Void(r.Context(), usecase.VoidInput{
		SaleID:    chi.URLParam(r, "id"),
		Reason:    req.Reason,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		IPAddress: actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "void failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SaleFromDomain(sale))
}

// Get retrieves a sale by ID.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := h.saleUC.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get sale", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SaleFromDomain(sale))
}

// List lists sales.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := usecase.SaleFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
		LocationID: r.URL.Query().Get("location_id"),
		Limit:      parseIntQuery(r, "limit", 20),
		Offset:     parseIntQuery(r, "offset", 0),
	}
	if from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to")); err == nil {
		filter.To = &to
	}

	sales, err := h.saleUC.ListSales(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sales", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.SalesFromDomain(sales)))
}

// ListReturns lists returns processed against one sale.
func (h *SaleHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.returnUC.ListReturnsBySale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list returns", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.ReturnsFromDomain(returns)))
}
