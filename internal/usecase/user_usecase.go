package usecase

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tillbook/tillbook/internal/domain"
)

// TokenIssuer mints and verifies access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (token string, expiresAt time.Time, err error)
	Verify(token string) (userID string, role domain.Role, err error)
}

// UserUseCase manages staff accounts and authentication.
type UserUseCase struct {
	userRepo  UserRepository
	tokens    TokenIssuer
	auditRepo AuditRepository
	idGen     IDGenerator
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(userRepo UserRepository, tokens TokenIssuer, auditRepo AuditRepository, idGen IDGenerator) *UserUseCase {
	return &UserUseCase{
		userRepo:  userRepo,
		tokens:    tokens,
		auditRepo: auditRepo,
		idGen:     idGen,
	}
}

// CreateUserInput represents input for creating a staff account.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// CreateUser registers a staff account with a bcrypt-hashed password.
func (uc *UserUseCase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, domain.PreconditionError("unknown role %q", input.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uc.idGen.Generate(),
		Email:          strings.TrimSpace(strings.ToLower(input.Email)),
		Name:           strings.TrimSpace(input.Name),
		HashedPassword: string(hashed),
		Role:           input.Role,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Login authenticates by email and password. Failed attempts return the
// same error regardless of whether the account exists.
func (uc *UserUseCase) Login(ctx context.Context, email, password, ipAddress string) (*LoginResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			ActorID:    user.ID,
			ActorName:  user.Name,
			Action:     domain.AuditUserLogin,
			EntityType: "user",
			EntityID:   user.ID,
			IPAddress:  ipAddress,
			CreatedAt:  time.Now().UTC(),
		})
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword sets a new password after verifying the current one.
func (uc *UserUseCase) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(current)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if err := domain.ValidatePassword(next); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.HashedPassword = string(hashed)
	user.UpdatedAt = time.Now().UTC()
	return uc.userRepo.Update(ctx, user)
}

// SetRole changes a user's role.
func (uc *UserUseCase) SetRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.PreconditionError("unknown role %q", role)
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = time.Now().UTC()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive enables or disables a staff account.
func (uc *UserUseCase) SetActive(ctx context.Context, userID string, active bool) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	return uc.userRepo.Update(ctx, user)
}

// Get returns one user by ID.
func (uc *UserUseCase) Get(ctx context.Context, id string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// List returns a page of users.
func (uc *UserUseCase) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.userRepo.List(ctx, limit, offset)
}
