package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

// CustomerUseCase manages customers and their loyalty-point balances.
// Points are a balance holder like any other: earns and redemptions go
// through the mutation engine and leave ledger entries.
type CustomerUseCase struct {
	engine       *MutationEngine
	customerRepo CustomerRepository
	idGen        IDGenerator
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(engine *MutationEngine, customerRepo CustomerRepository, idGen IDGenerator) *CustomerUseCase {
	return &CustomerUseCase{
		engine:       engine,
		customerRepo: customerRepo,
		idGen:        idGen,
	}
}

// CustomerInput represents input for creating or updating a customer.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// Create registers a new customer with a zero loyalty balance.
func (uc *CustomerUseCase) Create(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := domain.ValidateEmail(input.Email); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:            uc.idGen.Generate(),
		Name:          strings.TrimSpace(input.Name),
		Email:         strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:         strings.TrimSpace(input.Phone),
		LoyaltyPoints: decimal.Zero,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Update changes a customer's contact details. The loyalty balance is not
// writable here; only the engine moves it.
func (uc *CustomerUseCase) Update(ctx context.Context, id string, input CustomerInput) (*domain.Customer, error) {
	customer, err := uc.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := domain.ValidateEmail(input.Email); err != nil {
			return nil, err
		}
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = strings.TrimSpace(strings.ToLower(input.Email))
	customer.Phone = strings.TrimSpace(input.Phone)
	customer.UpdatedAt = time.Now().UTC()

	if err := uc.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Deactivate soft-deactivates a customer. History stays intact.
func (uc *CustomerUseCase) Deactivate(ctx context.Context, id string) error {
	if _, err := uc.customerRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.customerRepo.SetActive(ctx, id, false, time.Now().UTC())
}

// Reactivate re-enables a deactivated customer.
func (uc *CustomerUseCase) Reactivate(ctx context.Context, id string) error {
	if _, err := uc.customerRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.customerRepo.SetActive(ctx, id, true, time.Now().UTC())
}

// Get returns one customer by ID.
func (uc *CustomerUseCase) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return uc.customerRepo.GetByID(ctx, id)
}

// List returns a page of customers.
func (uc *CustomerUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Customer, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.customerRepo.List(ctx, activeOnly, limit, offset)
}

// PointsInput represents input for a manual loyalty-point movement.
type PointsInput struct {
	CustomerID string
	Points     decimal.Decimal
	Note       string
	ActorID    string
	ActorName  string
	IPAddress  string
}

// EarnPoints credits loyalty points outside a sale (goodwill, promotions).
func (uc *CustomerUseCase) EarnPoints(ctx context.Context, input PointsInput) (decimal.Decimal, error) {
	return uc.movePoints(ctx, input, false)
}

// RedeemPoints debits loyalty points. The balance can never go negative.
func (uc *CustomerUseCase) RedeemPoints(ctx context.Context, input PointsInput) (decimal.Decimal, error) {
	return uc.movePoints(ctx, input, true)
}

func (uc *CustomerUseCase) movePoints(ctx context.Context, input PointsInput, redeem bool) (decimal.Decimal, error) {
	if input.Points.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	customer, err := uc.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return decimal.Zero, err
	}
	if !customer.IsActive {
		return decimal.Zero, domain.PreconditionError("customer %s is deactivated", customer.Name)
	}

	delta := input.Points
	kind := domain.EntryPointsEarn
	action := domain.AuditPointsEarn
	var preconditions []domain.Precondition
	if redeem {
		delta = input.Points.Neg()
		kind = domain.EntryPointsRedeem
		action = domain.AuditPointsRedeem
		preconditions = []domain.Precondition{domain.NonNegative("loyalty points")}
	}

	req := MutationRequest{
		Refs: []domain.HolderRef{customer.HolderRef()},
		Mutations: []Mutation{{
			Ref:           customer.HolderRef(),
			Delta:         delta,
			Kind:          kind,
			Preconditions: preconditions,
			Note:          input.Note,
		}},
		Reference: Reference{Type: "customer", ID: customer.ID},
		ActorID:   input.ActorID,
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     action,
			EntityType: "customer",
			EntityID:   customer.ID,
			Details:    domain.JSON{"points": input.Points.String(), "note": input.Note},
			IPAddress:  input.IPAddress,
			CreatedAt:  time.Now().UTC(),
		},
	}

	result, err := uc.engine.Execute(ctx, req)
	if err != nil {
		return decimal.Zero, err
	}
	return result.Balances[customer.HolderRef()], nil
}
