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

// ReturnService defines the behavior needed by ReturnHandler.
type ReturnService interface {
	CreateReturn(ctx context.Context, input usecase.CreateReturnInput) (*domain.Return, error)
	GetReturn(ctx context.Context, id string) (*domain.Return, error)
}

// ReturnHandler handles return HTTP requests.
type ReturnHandler struct {
	returnUC ReturnService
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(returnUC ReturnService) *ReturnHandler {
	return &ReturnHandler{returnUC: returnUC}
}

// Create processes a return against a sale.
func (h *ReturnHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReturnRequest
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

	ret, err := h.returnUC.CreateReturn(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "return failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReturnFromDomain(ret))
}

// Get retrieves a return by ID.
func (h *ReturnHandler) Get(w http.ResponseWriter, r *http.Request) {
	ret, err := h.returnUC.GetReturn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get return", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReturnFromDomain(ret))
}
