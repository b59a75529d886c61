package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionFailed marks a business-rule violation evaluated under
	// lock: insufficient balance, wrong status, over-limit. Always
	// caller-correctable, never retried automatically.
	ErrPreconditionFailed = errors.New("precondition failed")

	// Holder / document lookups
	ErrHolderNotFound   = errors.New("balance holder not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrGiftCardNotFound = errors.New("gift card not found")
	ErrRegisterNotFound = errors.New("cash register not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrSaleNotFound     = errors.New("sale not found")
	ErrReturnNotFound   = errors.New("return not found")
	ErrTransferNotFound = errors.New("stock transfer not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrUserNotFound     = errors.New("user not found")

	// Input validation
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrEmptySale       = errors.New("sale must contain at least one line")
	ErrDuplicateCode   = errors.New("code already in use")
)

// PreconditionError wraps ErrPreconditionFailed with a human-readable reason
// that is safe to surface to the caller.
func PreconditionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}
