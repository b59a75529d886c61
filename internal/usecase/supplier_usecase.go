package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/tillbook/tillbook/internal/domain"
)

// SupplierUseCase manages suppliers. Suppliers with purchase history are
// soft-deactivated, never deleted, so receipts always resolve their source.
type SupplierUseCase struct {
	supplierRepo SupplierRepository
	idGen        IDGenerator
}

// NewSupplierUseCase creates a new SupplierUseCase.
func NewSupplierUseCase(supplierRepo SupplierRepository, idGen IDGenerator) *SupplierUseCase {
	return &SupplierUseCase{
		supplierRepo: supplierRepo,
		idGen:        idGen,
	}
}

// SupplierInput represents input for creating or updating a supplier.
type SupplierInput struct {
	Name  string
	Email string
	Phone string
}

// Create registers a new supplier.
func (uc *SupplierUseCase) Create(ctx context.Context, input SupplierInput) (*domain.Supplier, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.Email != "" {
		if err := domain.ValidateEmail(input.Email); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	supplier := &domain.Supplier{
		ID:        uc.idGen.Generate(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:     strings.TrimSpace(input.Phone),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Update changes supplier contact details.
func (uc *SupplierUseCase) Update(ctx context.Context, id string, input SupplierInput) (*domain.Supplier, error) {
	supplier, err := uc.supplierRepo.GetByID(ctx, id)
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

	supplier.Name = strings.TrimSpace(input.Name)
	supplier.Email = strings.TrimSpace(strings.ToLower(input.Email))
	supplier.Phone = strings.TrimSpace(input.Phone)
	supplier.UpdatedAt = time.Now().UTC()

	if err := uc.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Deactivate soft-deactivates a supplier. New purchases are rejected;
// existing receipts keep pointing at it.
func (uc *SupplierUseCase) Deactivate(ctx context.Context, id string) error {
	if _, err := uc.supplierRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.supplierRepo.SetActive(ctx, id, false, time.Now().UTC())
}

// Reactivate re-enables a deactivated supplier.
func (uc *SupplierUseCase) Reactivate(ctx context.Context, id string) error {
	if _, err := uc.supplierRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return uc.supplierRepo.SetActive(ctx, id, true, time.Now().UTC())
}

// Get returns one supplier by ID.
func (uc *SupplierUseCase) Get(ctx context.Context, id string) (*domain.Supplier, error) {
	return uc.supplierRepo.GetByID(ctx, id)
}

// List returns a page of suppliers.
func (uc *SupplierUseCase) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Supplier, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.supplierRepo.List(ctx, activeOnly, limit, offset)
}
