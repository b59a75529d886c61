package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentKind selects how the adjustment quantity is interpreted.
//
// Delta applies the quantity as a relative change. Correction sets the stock
// level to the quantity as an absolute value. The asymmetry is deliberate and
// preserved: a stocktake correction records what was counted, not a guess at
// the difference.
type AdjustmentKind string

const (
	AdjustmentDelta      AdjustmentKind = "delta"
	AdjustmentCorrection AdjustmentKind = "correction"
)

// StockAdjustment is one manual stock change at a location.
type StockAdjustment struct {
	ID         string
	ProductID  string
	LocationID string
	Kind       AdjustmentKind
	Quantity   decimal.Decimal
	Reason     string
	AdjustedBy string
	CreatedAt  time.Time
}

// TransferStatus is the stock-transfer approval lifecycle:
// pending → approved | rejected, both terminal. Stock moves only on approval.
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferApproved TransferStatus = "approved"
	TransferRejected TransferStatus = "rejected"
)

// StockTransfer moves quantity of one product between two locations.
type StockTransfer struct {
	ID             string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Status         TransferStatus
	RequestedBy    string
	DecidedBy      string
	Note           string
	CreatedAt      time.Time
	DecidedAt      *time.Time
}

// Validate checks the transfer request shape.
func (t *StockTransfer) Validate() error {
	if t.FromLocationID == t.ToLocationID {
		return PreconditionError("transfer source and destination are the same location")
	}
	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidQuantity
	}
	return nil
}
