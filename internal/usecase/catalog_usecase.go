package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

// CatalogUseCase manages products and locations. Products with sale history
// are deactivated, never deleted; the catalog never touches balances.
type CatalogUseCase struct {
	productRepo ProductRepository
	idGen       IDGenerator
	cache       Cache
}

// NewCatalogUseCase creates a new CatalogUseCase.
func NewCatalogUseCase(productRepo ProductRepository, idGen IDGenerator, cache Cache) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo: productRepo,
		idGen:       idGen,
		cache:       cache,
	}
}

// ProductInput represents input for creating or updating a product.
type ProductInput struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	MinStock  decimal.Decimal
}

// CreateProduct adds a product to the catalog. SKUs are unique.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := domain.ValidateSKU(input.SKU); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.UnitPrice.IsNegative() {
		return nil, domain.PreconditionError("unit price cannot be negative")
	}
	if input.MinStock.IsNegative() {
		return nil, domain.PreconditionError("minimum stock cannot be negative")
	}

	if _, err := uc.productRepo.GetBySKU(ctx, input.SKU); err == nil {
		return nil, domain.ErrDuplicateCode
	} else if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:        uc.idGen.Generate(),
		SKU:       input.SKU,
		Name:      strings.TrimSpace(input.Name),
		UnitPrice: input.UnitPrice,
		MinStock:  input.MinStock,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct changes product attributes. The SKU is immutable.
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.UnitPrice.IsNegative() {
		return nil, domain.PreconditionError("unit price cannot be negative")
	}
	if input.MinStock.IsNegative() {
		return nil, domain.PreconditionError("minimum stock cannot be negative")
	}

	product.Name = strings.TrimSpace(input.Name)
	product.UnitPrice = input.UnitPrice
	product.MinStock = input.MinStock
	product.UpdatedAt = time.Now().UTC()

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	uc.invalidate(ctx, product.ID)
	return product, nil
}

// DeactivateProduct removes a product from sale without touching history.
func (uc *CatalogUseCase) DeactivateProduct(ctx context.Context, id string) error {
	if _, err := uc.productRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := uc.productRepo.SetActive(ctx, id, false, time.Now().UTC()); err != nil {
		return err
	}
	uc.invalidate(ctx, id)
	return nil
}

// ReactivateProduct puts a deactivated product back on sale.
func (uc *CatalogUseCase) ReactivateProduct(ctx context.Context, id string) error {
	if _, err := uc.productRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := uc.productRepo.SetActive(ctx, id, true, time.Now().UTC()); err != nil {
		return err
	}
	uc.invalidate(ctx, id)
	return nil
}

// GetProduct returns one product by ID.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return uc.productRepo.GetByID(ctx, id)
}

// GetProductBySKU returns one product by SKU.
func (uc *CatalogUseCase) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return uc.productRepo.GetBySKU(ctx, sku)
}

// ListProducts returns a page of products.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Product, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.productRepo.List(ctx, activeOnly, limit, offset)
}

// CreateLocation adds a stock location.
func (uc *CatalogUseCase) CreateLocation(ctx context.Context, name string) (*domain.Location, error) {
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	location := &domain.Location{
		ID:        uc.idGen.Generate(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.productRepo.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// ListLocations returns all locations.
func (uc *CatalogUseCase) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	return uc.productRepo.ListLocations(ctx)
}

func (uc *CatalogUseCase) invalidate(ctx context.Context, productID string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, "product:"+productID)
}
