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

// GiftCardService defines the behavior needed by GiftCardHandler.
type GiftCardService interface {
	Issue(ctx context.Context, input usecase.IssueInput) (*domain.GiftCard, error)
	Load(ctx context.Context, input usecase.LoadInput) (*domain.GiftCard, error)
	Redeem(ctx context.Context, input usecase.RedeemInput) (*domain.GiftCard, error)
	Disable(ctx context.Context, code, actorID, actorName, ipAddress string) error
	Get(ctx context.Context, code string) (*domain.GiftCard, error)
	List(ctx context.Context, limit, offset int) ([]*domain.GiftCard, error)
}

// GiftCardHandler handles gift-card HTTP requests.
type GiftCardHandler struct {
	giftCardUC GiftCardService
}

// NewGiftCardHandler creates a new GiftCardHandler.
func NewGiftCardHandler(giftCardUC GiftCardService) *GiftCardHandler {
	return &GiftCardHandler{giftCardUC: giftCardUC}
}

// Issue creates a gift card with an initial balance.
func (h *GiftCardHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueGiftCardRequest
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

	card, err := h.giftCardUC.Issue(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to issue gift card", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.GiftCardFromDomain(card))
}

// Load adds value to a card.
func (h *GiftCardHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req dto.GiftCardAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := requestActor(r)
	card, err := h.giftCardUC.Load(r.Context(), usecase.LoadInput{
		Code:      chi.URLParam(r, "code"),
		Amount:    req.Amount,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		IPAddress: actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to load gift card", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GiftCardFromDomain(card))
}

// Redeem subtracts value from a card outside a sale.
func (h *GiftCardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req dto.GiftCardAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	actor := requestActor(r)
	card, err := h.giftCardUC.Redeem(r.Context(), usecase.RedeemInput{
		Code:      chi.URLParam(r, "code"),
		Amount:    req.Amount,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		IPAddress: actor.IP,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to redeem gift card", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GiftCardFromDomain(card))
}

// Disable blocks a card from further use.
func (h *GiftCardHandler) Disable(w http.ResponseWriter, r *http.Request) {
	actor := requestActor(r)
	if err := h.giftCardUC.Disable(r.Context(), chi.URLParam(r, "code"), actor.ID, actor.Name, actor.IP); err != nil {
		writeError(w, mapDomainError(err), "failed to disable gift card", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Get retrieves a card by code.
func (h *GiftCardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.giftCardUC.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get gift card", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GiftCardFromDomain(card))
}

// List lists gift cards.
func (h *GiftCardHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	cards, err := h.giftCardUC.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list gift cards", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(dto.GiftCardsFromDomain(cards)))
}
