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

// SupplierService defines the behavior needed by SupplierHandler.
type SupplierService interface {
	Create(ctx context.Context, input usecase.SupplierInput) (*domain.Supplier, error)
	Update(ctx context.Context, id string, input usecase.SupplierInput) (*domain.Supplier, error)
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Supplier, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Supplier, error)
}

// SupplierHandler handles supplier HTTP requests.
type SupplierHandler struct {
	supplierUC SupplierService
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(supplierUC SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierUC: supplierUC}
}

// Create registers a supplier.
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	supplier, err := h.supplierUC.Create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create supplier", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SupplierFromDomain(supplier))
}

// Update changes a supplier's contact details.
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.SupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	supplier, err := h.supplierUC.Update(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update supplier", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SupplierFromDomain(supplier))
}

// Get retrieves a supplier by ID.
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	supplier, err := h.supplierUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get supplier", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SupplierFromDomain(supplier))
}

// List lists suppliers.
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := parseBoolQuery(r, "active_only", false)
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	suppliers, err := h.supplierUC.List(r.Context(), activeOnly, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list suppliers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.SuppliersFromDomain(suppliers)))
}

// SetActive deactivates or reactivates a supplier.
func (h *SupplierHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	var err error
	if req.Active {
		err = h.supplierUC.Reactivate(r.Context(), id)
	} else {
		err = h.supplierUC.Deactivate(r.Context(), id)
	}
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update supplier", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
