package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundMethod is how a return is paid back.
type RefundMethod string

const (
	RefundCash     RefundMethod = "cash"
	RefundCard     RefundMethod = "card"
	RefundGiftCard RefundMethod = "gift_card"
)

// Return is one return document against a completed sale.
type Return struct {
	ID           string
	SaleID       string
	Lines        []ReturnLine
	RefundAmount decimal.Decimal
	RefundMethod RefundMethod
	Reason       string
	ProcessedBy  string
	CreatedAt    time.Time
}

// ReturnLine is one returned product line.
type ReturnLine struct {
	ID        string
	ReturnID  string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// MaxReturnable computes how much of a sale line can still be returned given
// the quantity already returned across prior returns. This is the over-return
// guard and must be recomputed from history inside the transaction, never
// cached, so concurrent partial returns serialize correctly.
func MaxReturnable(sold, alreadyReturned decimal.Decimal) decimal.Decimal {
	remaining := sold.Sub(alreadyReturned)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
