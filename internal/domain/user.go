package domain

import (
	"context"
	"errors"
	"time"
)

// User is a staff member who can operate the system.
type User struct {
	ID             string
	Email          string
	Name           string
	HashedPassword string
	Role           Role
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Role is a user's access level.
type Role string

const (
	// RoleAdmin manages users, suppliers and everything below.
	RoleAdmin Role = "admin"

	// RoleManager approves transfers, adjusts stock, closes registers.
	RoleManager Role = "manager"

	// RoleCashier sells, takes returns, and moves drawer cash.
	RoleCashier Role = "cashier"
)

var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleManager: true,
	RoleCashier: true,
}

// IsValid checks if the role is a known role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanSell checks if the role can run checkouts and returns.
func (r Role) CanSell() bool {
	return r.IsValid()
}

// CanManageStock checks if the role can adjust stock and decide transfers.
func (r Role) CanManageStock() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanAdminister checks if the role can manage users and suppliers.
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInsufficientRole   = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok
}

// ActorID returns the authenticated user's ID, or "system" when the
// operation did not come through the HTTP layer.
func ActorID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return "system"
}
