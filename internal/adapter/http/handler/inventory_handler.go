package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// InventoryService defines the behavior needed by InventoryHandler.
type InventoryService interface {
	Adjust(ctx context.Context, input usecase.AdjustInput) (*domain.StockAdjustment, error)
	RequestTransfer(ctx context.Context, input usecase.TransferRequestInput) (*domain.StockTransfer, error)
	ApproveTransfer(ctx context.Context, input usecase.DecideTransferInput) (*domain.StockTransfer, error)
	RejectTransfer(ctx context.Context, input usecase.DecideTransferInput) (*domain.StockTransfer, error)
	ReceivePurchase(ctx context.Context, input usecase.ReceivePurchaseInput) (*domain.Purchase, error)
	GetStock(ctx context.Context, productID, locationID string) (*domain.StockLevel, error)
	ListStock(ctx context.Context, locationID string, limit, offset int) ([]*domain.StockLevel, error)
	LowStock(ctx context.Context, locationID string) ([]*domain.StockLevel, error)
	ListAdjustments(ctx context.Context, productID string, limit, offset int) ([]*domain.StockAdjustment, error)
	ListTransfers(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.StockTransfer, error)
	GetTransfer(ctx context.Context, id string) (*domain.StockTransfer, error)
	GetPurchase(ctx context.Context, id string) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, supplierID string, limit, offset int) ([]*domain.Purchase, error)
}

// InventoryHandler handles stock HTTP requests.
type InventoryHandler struct {
	inventoryUC InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inventoryUC InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryUC: inventoryUC}
}

// GetStock retrieves one product's stock at one location.
func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	locationID := r.URL.Query().Get("location_id")
	if productID == "" || locationID == "" {
		writeError(w, http.StatusBadRequest, "product_id and location_id are required", "")
		return
	}

	level, err := h.inventoryUC.GetStock(r.Context(), productID, locationID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get stock", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StockLevelFromDomain(level))
}

// ListStock lists stock rows at a location.
func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	locationID := r.URL.Query().Get("location_id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	levels, err := h.inventoryUC.ListStock(r.Context(), locationID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list stock", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.StockLevelsFromDomain(levels)))
}

// LowStock lists products at or below their minimum stock.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.inventoryUC.LowStock(r.Context(), r.URL.Query().Get("location_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list low stock", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.StockLevelsFromDomain(levels)))
}

// Adjust applies a manual stock adjustment.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req dto.AdjustStockRequest
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

	adjustment, err := h.inventoryUC.Adjust(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "adjustment failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AdjustmentFromDomain(adjustment))
}

// ListAdjustments lists stock adjustments.
func (h *InventoryHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	adjustments, err := h.inventoryUC.ListAdjustments(r.Context(), productID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list adjustments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.AdjustmentsFromDomain(adjustments)))
}

// RequestTransfer records a pending stock transfer.
func (h *InventoryHandler) RequestTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	input := req.ToUseCaseInput()
	input.ActorID = requestActor(r).ID

	transfer, err := h.inventoryUC.RequestTransfer(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to request transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// ApproveTransfer approves a pending transfer and moves the stock.
func (h *InventoryHandler) ApproveTransfer(w http.ResponseWriter, r *http.Request) {
	h.decideTransfer(w, r, h.inventoryUC.ApproveTransfer)
}

// RejectTransfer rejects a pending transfer.
func (h *InventoryHandler) RejectTransfer(w http.ResponseWriter, r *http.Request) {
	h.decideTransfer(w, r, h.inventoryUC.RejectTransfer)
}

func (h *InventoryHandler) decideTransfer(
	w http.ResponseWriter,
	r *http.Request,
	decide func(context.Context, usecase.DecideTransferInput) (*domain.StockTransfer, error),
) {
	actor := requestActor(r)
	transfer, err := decide(r.Context(), usecase.DecideTransferInput{
		TransferID: chi.URLParam(r, "id"),
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		IPAddress:  actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to decide transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// GetTransfer retrieves a transfer by ID.
func (h *InventoryHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.inventoryUC.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// ListTransfers lists transfers, optionally by status.
func (h *InventoryHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	status := domain.TransferStatus(r.URL.Query().Get("status"))
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	transfers, err := h.inventoryUC.ListTransfers(r.Context(), status, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.TransfersFromDomain(transfers)))
}

// ReceivePurchase records a goods receipt and increases stock.
func (h *InventoryHandler) ReceivePurchase(w http.ResponseWriter, r *http.Request) {
	var req dto.ReceivePurchaseRequest
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

	purchase, err := h.inventoryUC.ReceivePurchase(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to receive purchase", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PurchaseFromDomain(purchase))
}

// GetPurchase retrieves a goods receipt by ID.
func (h *InventoryHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.inventoryUC.GetPurchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get purchase", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PurchaseFromDomain(purchase))
}

// ListPurchases lists goods receipts, optionally by supplier.
func (h *InventoryHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	supplierID := r.URL.Query().Get("supplier_id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	purchases, err := h.inventoryUC.ListPurchases(r.Context(), supplierID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list purchases", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.PurchasesFromDomain(purchases)))
}
