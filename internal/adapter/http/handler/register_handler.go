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

// RegisterService defines the behavior needed by RegisterHandler.
type RegisterService interface {
	Open(ctx context.Context, input usecase.OpenInput) (*domain.CashRegister, error)
	Close(ctx context.Context, input usecase.CloseInput) (*domain.CashRegister, error)
	CashIn(ctx context.Context, input usecase.MovementInput) (*domain.CashMovement, error)
	CashOut(ctx context.Context, input usecase.MovementInput) (*domain.CashMovement, error)
	Current(ctx context.Context) (*domain.CashRegister, error)
	Get(ctx context.Context, id string) (*domain.CashRegister, error)
	History(ctx context.Context, limit, offset int) ([]*domain.CashRegister, error)
	ListMovements(ctx context.Context, registerID string) ([]*domain.CashMovement, error)
}

// RegisterHandler handles cash-register HTTP requests.
type RegisterHandler struct {
	registerUC RegisterService
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(registerUC RegisterService) *RegisterHandler {
	return &RegisterHandler{registerUC: registerUC}
}

// Open starts a drawer session.
func (h *RegisterHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := requestActor(r)
	register, err := h.registerUC.Open(r.Context(), usecase.OpenInput{
		LocationID:     req.LocationID,
		OpeningBalance: req.OpeningBalance,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		IPAddress:      actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to open register", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RegisterFromDomain(register))
}

// Close ends a drawer session against a counted closing balance.
func (h *RegisterHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req dto.CloseRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := requestActor(r)
	register, err := h.registerUC.Close(r.Context(), usecase.CloseInput{
		RegisterID:     chi.URLParam(r, "id"),
		ClosingBalance: req.ClosingBalance,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		IPAddress:      actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to close register", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterFromDomain(register))
}

// CashIn records cash manually added to the drawer.
func (h *RegisterHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.registerUC.CashIn)
}

// CashOut records cash manually removed from the drawer.
func (h *RegisterHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, h.registerUC.CashOut)
}

func (h *RegisterHandler) movement(
	w http.ResponseWriter,
	r *http.Request,
	move func(context.Context, usecase.MovementInput) (*domain.CashMovement, error),
) {
	var req dto.CashMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	actor := requestActor(r)
	movement, err := move(r.Context(), usecase.MovementInput{
		RegisterID: chi.URLParam(r, "id"),
		Amount:     req.Amount,
		Reason:     req.Reason,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		IPAddress:  actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record movement", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// Current returns the open register session, if any.
func (h *RegisterHandler) Current(w http.ResponseWriter, r *http.Request) {
	register, err := h.registerUC.Current(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "no open register", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterFromDomain(register))
}

// Get retrieves a register session by ID.
func (h *RegisterHandler) Get(w http.ResponseWriter, r *http.Request) {
	register, err := h.registerUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get register", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RegisterFromDomain(register))
}

// History lists past register sessions.
func (h *RegisterHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	registers, err := h.registerUC.History(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list registers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.RegistersFromDomain(registers)))
}

// ListMovements lists manual drawer movements for one session.
func (h *RegisterHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.registerUC.ListMovements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list movements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.MovementsFromDomain(movements)))
}
