package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HolderKind identifies which table a balance holder lives in.
type HolderKind string

const (
	HolderStock    HolderKind = "stock"
	HolderGiftCard HolderKind = "gift_card"
	HolderRegister HolderKind = "register_cash"
	HolderLoyalty  HolderKind = "loyalty"
)

// HolderRef identifies one balance holder row.
type HolderRef struct {
	Kind HolderKind
	ID   string
}

// Less defines the global lock-acquisition order for holders. Every
// multi-holder mutation locks rows in this order so that two concurrent
// mutations touching overlapping holder sets cannot deadlock.
func (r HolderRef) Less(other HolderRef) bool {
	if r.Kind != other.Kind {
		return r.Kind < other.Kind
	}
	return r.ID < other.ID
}

// Balance is the locked snapshot of a holder row inside a transaction.
type Balance struct {
	Ref       HolderRef
	Amount    decimal.Decimal
	Status    string
	UpdatedAt time.Time
}

// Precondition is a business rule evaluated against the locked holder state
// and the balance that would result from the mutation. A non-nil return
// aborts the whole transaction with no partial writes.
type Precondition func(current *Balance, next decimal.Decimal) error

// NonNegative rejects mutations that would drive the balance below zero.
func NonNegative(what string) Precondition {
	return func(current *Balance, next decimal.Decimal) error {
		if next.IsNegative() {
			return PreconditionError("insufficient %s. Available: %s", what, current.Amount.String())
		}
		return nil
	}
}

// StatusIs rejects mutations against a holder not in the expected status.
func StatusIs(want string) Precondition {
	return func(current *Balance, next decimal.Decimal) error {
		if current.Status != want {
			return PreconditionError("holder status is %q, want %q", current.Status, want)
		}
		return nil
	}
}

// StatusNot rejects mutations against a holder in a forbidden status.
func StatusNot(forbidden string) Precondition {
	return func(current *Balance, next decimal.Decimal) error {
		if current.Status == forbidden {
			return PreconditionError("holder status is %q", forbidden)
		}
		return nil
	}
}

// MaxDelta caps the absolute delta applied against the current balance.
func MaxDelta(limit decimal.Decimal, what string) Precondition {
	return func(current *Balance, next decimal.Decimal) error {
		if next.Sub(current.Amount).Abs().GreaterThan(limit) {
			return PreconditionError("%s change exceeds limit of %s", what, limit.String())
		}
		return nil
	}
}
