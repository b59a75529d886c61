package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiftCardStatus is the card lifecycle state.
//
//	active   → depleted  (balance reaches zero on redeem)
//	active   → expired   (detected lazily on redeem past expiry)
//	depleted → expired
//	any      → disabled  (manual; terminal for redemption, not for inspection)
type GiftCardStatus string

const (
	GiftCardActive   GiftCardStatus = "active"
	GiftCardDepleted GiftCardStatus = "depleted"
	GiftCardExpired  GiftCardStatus = "expired"
	GiftCardDisabled GiftCardStatus = "disabled"
)

// GiftCard is the balance holder for stored value sold to a customer.
type GiftCard struct {
	ID        string
	Code      string
	Balance   decimal.Decimal
	Status    GiftCardStatus
	ExpiresAt *time.Time
	IssuedTo  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HolderRef returns the mutation-engine reference for this card.
func (g *GiftCard) HolderRef() HolderRef {
	return HolderRef{Kind: HolderGiftCard, ID: g.ID}
}

// IsExpired reports whether the card is past its expiry date at t.
func (g *GiftCard) IsExpired(t time.Time) bool {
	return g.ExpiresAt != nil && g.ExpiresAt.Before(t)
}

// CanRedeem checks the redeem preconditions that do not depend on amount.
func (g *GiftCard) CanRedeem(now time.Time) error {
	switch g.Status {
	case GiftCardDisabled:
		return PreconditionError("gift card %s is disabled", g.Code)
	case GiftCardExpired:
		return PreconditionError("gift card %s has expired", g.Code)
	case GiftCardDepleted:
		return PreconditionError("gift card %s has no remaining balance", g.Code)
	}
	if g.IsExpired(now) {
		return PreconditionError("gift card %s has expired", g.Code)
	}
	return nil
}

// CanLoad checks the load preconditions.
func (g *GiftCard) CanLoad(now time.Time) error {
	if g.Status == GiftCardDisabled {
		return PreconditionError("gift card %s is disabled", g.Code)
	}
	if g.Status == GiftCardExpired || g.IsExpired(now) {
		return PreconditionError("gift card %s has expired", g.Code)
	}
	return nil
}

// StatusAfterRedeem returns the status the card should hold once balance
// reaches the given value.
func StatusAfterRedeem(balance decimal.Decimal) GiftCardStatus {
	if balance.IsZero() {
		return GiftCardDepleted
	}
	return GiftCardActive
}
