package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tillbook/tillbook/internal/adapter/http/dto"
	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	Login(ctx context.Context, email, password, ipAddress string) (*usecase.LoginResult, error)
	Get(ctx context.Context, id string) (*domain.User, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	userUC AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userUC AuthService) *AuthHandler {
	return &AuthHandler{userUC: userUC}
}

// Login authenticates by email and password and returns a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := dto.Validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := h.userUC.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		writeError(w, mapDomainError(err), "login failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.UserFromDomain(result.User),
	})
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := domain.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	// The token only carries ID and role; read the full account.
	full, err := h.userUC.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to load user", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(full))
}
