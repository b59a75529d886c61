package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest represents a request to create a staff account.
type CreateUserRequest struct {
	Email    string      `json:"email"    validate:"required,email"`
	Name     string      `json:"name"     validate:"required"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     domain.Role `json:"role"     validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateUserRequest) ToUseCaseInput() usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     r.Role,
	}
}

// ChangePasswordRequest represents a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
}

// SetRoleRequest represents a role change.
type SetRoleRequest struct {
	Role domain.Role `json:"role" validate:"required"`
}

// SetActiveRequest toggles an account or entity on or off.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// ProductRequest represents a request to create or update a product.
type ProductRequest struct {
	SKU       string          `json:"sku"        validate:"required"`
	Name      string          `json:"name"       validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	MinStock  decimal.Decimal `json:"min_stock"`
}

// ToUseCaseInput converts to use case input.
func (r *ProductRequest) ToUseCaseInput() usecase.ProductInput {
	return usecase.ProductInput{
		SKU:       r.SKU,
		Name:      r.Name,
		UnitPrice: r.UnitPrice,
		MinStock:  r.MinStock,
	}
}

// LocationRequest represents a request to create a location.
type LocationRequest struct {
	Name string `json:"name" validate:"required"`
}

// CustomerRequest represents a request to create or update a customer.
type CustomerRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// ToUseCaseInput converts to use case input.
func (r *CustomerRequest) ToUseCaseInput() usecase.CustomerInput {
	return usecase.CustomerInput{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	}
}

// PointsRequest represents a manual loyalty-point movement.
type PointsRequest struct {
	Points decimal.Decimal `json:"points" validate:"required"`
	Note   string          `json:"note"`
}

// SupplierRequest represents a request to create or update a supplier.
type SupplierRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// ToUseCaseInput converts to use case input.
func (r *SupplierRequest) ToUseCaseInput() usecase.SupplierInput {
	return usecase.SupplierInput{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	}
}

// CheckoutLineRequest is one cart line.
type CheckoutLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"   validate:"required"`
}

// CheckoutRequest represents a checkout.
type CheckoutRequest struct {
	CustomerID    string                `json:"customer_id"`
	LocationID    string                `json:"location_id"    validate:"required"`
	Lines         []CheckoutLineRequest `json:"lines"          validate:"required,min=1,dive"`
	Discount      decimal.Decimal       `json:"discount"`
	PaymentMethod domain.PaymentMethod  `json:"payment_method" validate:"required"`
	GiftCardCode  string                `json:"gift_card_code"`
}

// ToUseCaseInput converts to use case input.
func (r *CheckoutRequest) ToUseCaseInput() usecase.CheckoutInput {
	lines := make([]usecase.CheckoutLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.CheckoutLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		}
	}
	return usecase.CheckoutInput{
		CustomerID:    r.CustomerID,
		LocationID:    r.LocationID,
		Lines:         lines,
		Discount:      r.Discount,
		PaymentMethod: r.PaymentMethod,
		GiftCardCode:  r.GiftCardCode,
	}
}

// VoidSaleRequest represents a request to void a sale.
type VoidSaleRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ReturnLineRequest is one requested return line.
type ReturnLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"   validate:"required"`
}

// CreateReturnRequest represents a request to process a return.
type CreateReturnRequest struct {
	SaleID       string              `json:"sale_id"       validate:"required"`
	Lines        []ReturnLineRequest `json:"lines"         validate:"required,min=1,dive"`
	RefundMethod domain.RefundMethod `json:"refund_method" validate:"required"`
	Reason       string              `json:"reason"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateReturnRequest) ToUseCaseInput() usecase.CreateReturnInput {
	lines := make([]usecase.ReturnLineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.ReturnLineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		}
	}
	return usecase.CreateReturnInput{
		SaleID:       r.SaleID,
		Lines:        lines,
		RefundMethod: r.RefundMethod,
		Reason:       r.Reason,
	}
}

// IssueGiftCardRequest represents a request to issue a gift card.
type IssueGiftCardRequest struct {
	Code           string          `json:"code"`
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"required"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	IssuedTo       string          `json:"issued_to"`
}

// ToUseCaseInput converts to use case input.
func (r *IssueGiftCardRequest) ToUseCaseInput() usecase.IssueInput {
	return usecase.IssueInput{
		Code:           r.Code,
		InitialBalance: r.InitialBalance,
		ExpiresAt:      r.ExpiresAt,
		IssuedTo:       r.IssuedTo,
	}
}

// GiftCardAmountRequest carries an amount for load and redeem calls.
type GiftCardAmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// OpenRegisterRequest represents a request to open a drawer session.
type OpenRegisterRequest struct {
	LocationID     string          `json:"location_id" validate:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// CashMovementRequest represents a manual drawer movement.
type CashMovementRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Reason string          `json:"reason" validate:"required"`
}

// CloseRegisterRequest represents a request to close a drawer session.
type CloseRegisterRequest struct {
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// AdjustStockRequest represents a manual stock adjustment.
type AdjustStockRequest struct {
	ProductID  string                `json:"product_id"  validate:"required"`
	LocationID string                `json:"location_id" validate:"required"`
	Kind       domain.AdjustmentKind `json:"kind"        validate:"required"`
	Quantity   decimal.Decimal       `json:"quantity"`
	Reason     string                `json:"reason"      validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *AdjustStockRequest) ToUseCaseInput() usecase.AdjustInput {
	return usecase.AdjustInput{
		ProductID:  r.ProductID,
		LocationID: r.LocationID,
		Kind:       r.Kind,
		Quantity:   r.Quantity,
		Reason:     r.Reason,
	}
}

// TransferRequest represents a request to move stock between locations.
type TransferRequest struct {
	ProductID      string          `json:"product_id"       validate:"required"`
	FromLocationID string          `json:"from_location_id" validate:"required"`
	ToLocationID   string          `json:"to_location_id"   validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"         validate:"required"`
	Note           string          `json:"note"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferRequestInput {
	return usecase.TransferRequestInput{
		ProductID:      r.ProductID,
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		Quantity:       r.Quantity,
		Note:           r.Note,
	}
}

// PurchaseLineRequest is one received line.
type PurchaseLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"   validate:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// ReceivePurchaseRequest represents a goods receipt.
type ReceivePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" validate:"required"`
	LocationID string                `json:"location_id" validate:"required"`
	Lines      []PurchaseLineRequest `json:"lines"       validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *ReceivePurchaseRequest) ToUseCaseInput() usecase.ReceivePurchaseInput {
	lines := make([]usecase.PurchaseLineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.PurchaseLineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		}
	}
	return usecase.ReceivePurchaseInput{
		SupplierID: r.SupplierID,
		LocationID: r.LocationID,
		Lines:      lines,
	}
}
