package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a goods source. Suppliers with purchase history are
// soft-deactivated via IsActive, never deleted.
type Supplier struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Purchase is a goods receipt from a supplier; receiving it increases stock.
type Purchase struct {
	ID         string
	SupplierID string
	LocationID string
	Lines      []PurchaseLine
	Total      decimal.Decimal
	ReceivedBy string
	CreatedAt  time.Time
}

// PurchaseLine is one received product line.
type PurchaseLine struct {
	ID         string
	PurchaseID string
	ProductID  string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
}

// ComputeTotal fills Total from the lines.
func (p *Purchase) ComputeTotal() error {
	if len(p.Lines) == 0 {
		return PreconditionError("purchase must contain at least one line")
	}
	total := decimal.Zero
	for _, line := range p.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidQuantity
		}
		total = total.Add(line.UnitCost.Mul(line.Quantity))
	}
	p.Total = RoundCurrency(total)
	return nil
}
