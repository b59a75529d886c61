package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// CustomerService defines the behavior needed by CustomerHandler.
type CustomerService interface {
	Create(ctx context.Context, input usecase.CustomerInput) (*domain.Customer, error)
	Update(ctx context.Context, id string, input usecase.CustomerInput) (*domain.Customer, error)
	Deactivate(ctx context.Context, id string) error
	Reactivate(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Customer, error)
	EarnPoints(ctx context.Context, input usecase.PointsInput) (decimal.Decimal, error)
	RedeemPoints(ctx context.Context, input usecase.PointsInput) (decimal.Decimal, error)
}

// CustomerHandler handles customer HTTP requests.
type CustomerHandler struct {
	customerUC CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerUC CustomerService) *CustomerHandler {
	return &CustomerHandler{customerUC: customerUC}
}

// Create registers a customer.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	customer, err := h.customerUC.Create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create customer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CustomerFromDomain(customer))
}

// Update changes a customer's contact details.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.CustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	customer, err := h.customerUC.Update(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update customer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}

// Get retrieves a customer by ID.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customerUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get customer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}

// List lists customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := parseBoolQuery(r, "active_only", false)
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	customers, err := h.customerUC.List(r.Context(), activeOnly, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list customers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.CustomersFromDomain(customers)))
}

// SetActive deactivates or reactivates a customer.
func (h *CustomerHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	var err error
	if req.Active {
		err = h.customerUC.Reactivate(r.Context(), id)
	} else {
		err = h.customerUC.Deactivate(r.Context(), id)
	}
	if err != nil {
		writeError(w, mapDomainError(err), "failed to update customer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EarnPoints credits loyalty points outside a sale.
func (h *CustomerHandler) EarnPoints(w http.ResponseWriter, r *http.Request) {
	h.movePoints(w, r, h.customerUC.EarnPoints)
}

// RedeemPoints debits loyalty points.
func (h *CustomerHandler) RedeemPoints(w http.ResponseWriter, r *http.Request) {
	h.movePoints(w, r, h.customerUC.RedeemPoints)
}

func (h *CustomerHandler) movePoints(
	w http.ResponseWriter,
	r *http.Request,
	move func(context.Context, usecase.PointsInput) (decimal.Decimal, error),
) {
	var req dto.PointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := requestActor(r)
	balance, err := move(r.Context(), usecase.PointsInput{
		CustomerID: chi.URLParam(r, "id"),
		Points:     req.Points,
		Note:       req.Note,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		IPAddress:  actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to move points", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"loyalty_points": balance})
}
