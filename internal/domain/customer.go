package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a buyer with an optional loyalty-point balance.
// Customers with sale history are soft-deactivated, never deleted.
type Customer struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	LoyaltyPoints decimal.Decimal
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HolderRef returns the mutation-engine reference for the loyalty balance.
func (c *Customer) HolderRef() HolderRef {
	return HolderRef{Kind: HolderLoyalty, ID: c.ID}
}
