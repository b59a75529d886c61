package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was settled.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayGiftCard PaymentMethod = "gift_card"
)

// SaleStatus is the sale lifecycle. A checkout completes immediately;
// returns reduce the remaining-returnable quantity without changing status.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleVoided    SaleStatus = "voided"
)

// Sale is one checkout document.
type Sale struct {
	ID            string
	CustomerID    string
	LocationID    string
	RegisterID    string
	Lines         []SaleLine
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	NetAmount     decimal.Decimal
	PaymentMethod PaymentMethod
	GiftCardCode  string
	Status        SaleStatus
	SoldBy        string
	CreatedAt     time.Time
}

// SaleLine is one cart line.
type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// ComputeTotals fills Subtotal and NetAmount from the lines and validates
// the discount. Rejects discount > subtotal and non-positive quantities.
func (s *Sale) ComputeTotals() error {
	if len(s.Lines) == 0 {
		return ErrEmptySale
	}

	subtotal := decimal.Zero
	for i := range s.Lines {
		line := &s.Lines[i]
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidQuantity
		}
		line.LineTotal = line.UnitPrice.Mul(line.Quantity)
		subtotal = subtotal.Add(line.LineTotal)
	}

	if s.Discount.IsNegative() {
		return PreconditionError("discount cannot be negative")
	}
	if s.Discount.GreaterThan(subtotal) {
		return PreconditionError("discount %s exceeds subtotal %s", s.Discount.String(), subtotal.String())
	}

	s.Subtotal = subtotal
	s.NetAmount = RoundCurrency(subtotal.Sub(s.Discount))
	return nil
}
