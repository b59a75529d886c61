package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item. Stock is tracked per location in
// StockLevel rows, not on the product itself.
type Product struct {
	ID        string
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	MinStock  decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is a place stock can sit: a shop floor, a back room, a warehouse.
type Location struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// StockLevel is the balance holder for one product at one location.
type StockLevel struct {
	ID         string
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// HolderRef returns the mutation-engine reference for this stock row.
func (s *StockLevel) HolderRef() HolderRef {
	return HolderRef{Kind: HolderStock, ID: s.ID}
}
