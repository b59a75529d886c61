package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterStatus is the register session lifecycle: open → closed, terminal.
// At most one register may be open at a time; the database enforces this with
// a partial unique index on status='open'.
type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "open"
	RegisterClosed RegisterStatus = "closed"
)

// CashRegister is one drawer session from open to close.
//
// CashOnHand is the holder balance maintained by the mutation engine; the
// kind totals (CashSalesTotal, TotalCashIn, TotalCashOut) are updated in the
// same transaction and must always recompute to the same drawer value.
type CashRegister struct {
	ID              string
	LocationID      string
	Status          RegisterStatus
	OpeningBalance  decimal.Decimal
	CashOnHand      decimal.Decimal
	CashSalesTotal  decimal.Decimal
	TotalCashIn     decimal.Decimal
	TotalCashOut    decimal.Decimal
	ClosingBalance  decimal.Decimal
	ExpectedBalance decimal.Decimal
	Difference      decimal.Decimal
	OpenedBy        string
	ClosedBy        string
	OpenedAt        time.Time
	ClosedAt        *time.Time
}

// HolderRef returns the mutation-engine reference for the drawer cash.
func (r *CashRegister) HolderRef() HolderRef {
	return HolderRef{Kind: HolderRegister, ID: r.ID}
}

// DrawerBalance recomputes the drawer from the movement totals. It must
// always equal CashOnHand; reconciliation reports verify exactly that.
func (r *CashRegister) DrawerBalance() decimal.Decimal {
	return r.OpeningBalance.Add(r.CashSalesTotal).Add(r.TotalCashIn).Sub(r.TotalCashOut)
}

// Expected computes the counted-cash expectation at close time,
// rounded to currency precision.
func (r *CashRegister) Expected() decimal.Decimal {
	return RoundCurrency(r.DrawerBalance())
}

// CloseDifference computes closing − expected at currency precision.
func (r *CashRegister) CloseDifference(closing decimal.Decimal) decimal.Decimal {
	return RoundCurrency(closing.Sub(r.Expected()))
}

// MovementKind classifies a manual drawer movement.
type MovementKind string

const (
	MovementCashIn  MovementKind = "cash_in"
	MovementCashOut MovementKind = "cash_out"
)

// CashMovement is one manual cash_in/cash_out against an open register.
type CashMovement struct {
	ID         string
	RegisterID string
	Kind       MovementKind
	Amount     decimal.Decimal
	Reason     string
	ActorID    string
	CreatedAt  time.Time
}
