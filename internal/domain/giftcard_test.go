package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestGiftCard_CanRedeem(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name        string
		status      GiftCardStatus
		expiresAt   *time.Time
		expectError bool
	}{
		{"active card", GiftCardActive, nil, false},
		{"active with future expiry", GiftCardActive, &future, false},
		{"disabled card", GiftCardDisabled, nil, true},
		{"expired status", GiftCardExpired, nil, true},
		{"depleted card", GiftCardDepleted, nil, true},
		{"past expiry not yet flagged", GiftCardActive, &past, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &GiftCard{Code: "GC-TEST", Status: tt.status, ExpiresAt: tt.expiresAt}

			err := card.CanRedeem(now)

			if tt.expectError {
				if !errors.Is(err, ErrPreconditionFailed) {
					t.Errorf("err = %v, want precondition failure", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGiftCard_CanLoad(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	tests := []struct {
		name        string
		status      GiftCardStatus
		expiresAt   *time.Time
		expectError bool
	}{
		{"active card", GiftCardActive, nil, false},
		// A depleted card is reloadable; that is what brings it back.
		{"depleted card", GiftCardDepleted, nil, false},
		{"disabled card", GiftCardDisabled, nil, true},
		{"expired status", GiftCardExpired, nil, true},
		{"past expiry not yet flagged", GiftCardActive, &past, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &GiftCard{Code: "GC-TEST", Status: tt.status, ExpiresAt: tt.expiresAt}

			err := card.CanLoad(now)

			if tt.expectError {
				if !errors.Is(err, ErrPreconditionFailed) {
					t.Errorf("err = %v, want precondition failure", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestStatusAfterRedeem(t *testing.T) {
	if got := StatusAfterRedeem(decimal.Zero); got != GiftCardDepleted {
		t.Errorf("status at zero balance = %s, want %s", got, GiftCardDepleted)
	}
	if got := StatusAfterRedeem(decimal.RequireFromString("0.01")); got != GiftCardActive {
		t.Errorf("status at remaining balance = %s, want %s", got, GiftCardActive)
	}
}

func TestGiftCard_IsExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	card := &GiftCard{Code: "GC-TEST", Status: GiftCardActive}
	if card.IsExpired(now) {
		t.Error("card without expiry reported expired")
	}

	card.ExpiresAt = &past
	if !card.IsExpired(now) {
		t.Error("card past expiry not reported expired")
	}
	if card.IsExpired(past.Add(-time.Minute)) {
		t.Error("card reported expired before its expiry date")
	}
}
