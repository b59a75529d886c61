package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSale_ComputeTotals(t *testing.T) {
	lines := func(qty, price int64) []SaleLine {
		return []SaleLine{{ProductID: "prod-1", Quantity: decimal.NewFromInt(qty), UnitPrice: decimal.NewFromInt(price)}}
	}

	tests := []struct {
		name        string
		lines       []SaleLine
		discount    decimal.Decimal
		expectError bool
		sentinel    error
		wantNet     string
	}{
		{
			name:     "no discount",
			lines:    lines(3, 10),
			discount: decimal.Zero,
			wantNet:  "30",
		},
		{
			name:     "discount within subtotal",
			lines:    lines(3, 10),
			discount: decimal.NewFromInt(5),
			wantNet:  "25",
		},
		{
			name:     "discount equal to subtotal",
			lines:    lines(3, 10),
			discount: decimal.NewFromInt(30),
			wantNet:  "0",
		},
		{
			name:        "discount exceeds subtotal",
			lines:       lines(3, 10),
			discount:    decimal.NewFromInt(31),
			expectError: true,
			sentinel:    ErrPreconditionFailed,
		},
		{
			name:        "negative discount",
			lines:       lines(3, 10),
			discount:    decimal.NewFromInt(-1),
			expectError: true,
			sentinel:    ErrPreconditionFailed,
		},
		{
			name:        "zero quantity line",
			lines:       lines(0, 10),
			discount:    decimal.Zero,
			expectError: true,
			sentinel:    ErrInvalidQuantity,
		},
		{
			name:        "no lines",
			lines:       nil,
			discount:    decimal.Zero,
			expectError: true,
			sentinel:    ErrEmptySale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := &Sale{Lines: tt.lines, Discount: tt.discount}

			err := sale.ComputeTotals()

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
					t.Errorf("err = %v, want %v", err, tt.sentinel)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sale.NetAmount.String() != tt.wantNet {
				t.Errorf("net amount = %s, want %s", sale.NetAmount, tt.wantNet)
			}
			if !sale.Subtotal.Equal(sale.NetAmount.Add(sale.Discount)) {
				t.Errorf("subtotal %s != net %s + discount %s", sale.Subtotal, sale.NetAmount, sale.Discount)
			}
		})
	}
}

func TestSale_ComputeTotalsFillsLineTotals(t *testing.T) {
	sale := &Sale{Lines: []SaleLine{
		{ProductID: "prod-1", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("2.50")},
		{ProductID: "prod-2", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4)},
	}}

	if err := sale.ComputeTotals(); err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if sale.Lines[0].LineTotal.String() != "5" {
		t.Errorf("line 0 total = %s, want 5", sale.Lines[0].LineTotal)
	}
	if sale.Subtotal.String() != "9" {
		t.Errorf("subtotal = %s, want 9", sale.Subtotal)
	}
}

func TestMaxReturnable(t *testing.T) {
	tests := []struct {
		name     string
		sold     decimal.Decimal
		returned decimal.Decimal
		want     string
	}{
		{"nothing returned yet", decimal.NewFromInt(5), decimal.Zero, "5"},
		{"partially returned", decimal.NewFromInt(5), decimal.NewFromInt(3), "2"},
		{"fully returned", decimal.NewFromInt(5), decimal.NewFromInt(5), "0"},
		{"over-returned history clamps to zero", decimal.NewFromInt(5), decimal.NewFromInt(6), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxReturnable(tt.sold, tt.returned); got.String() != tt.want {
				t.Errorf("MaxReturnable(%s, %s) = %s, want %s", tt.sold, tt.returned, got, tt.want)
			}
		})
	}
}
