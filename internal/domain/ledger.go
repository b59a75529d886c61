package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies what produced a ledger entry.
type EntryKind string

const (
	EntrySale                 EntryKind = "sale"
	EntrySaleVoid             EntryKind = "sale_void"
	EntrySaleReturn           EntryKind = "sale_return"
	EntryGiftCardIssue        EntryKind = "gift_card_issue"
	EntryGiftCardLoad         EntryKind = "gift_card_load"
	EntryGiftCardRedeem       EntryKind = "gift_card_redeem"
	EntryCashSale             EntryKind = "cash_sale"
	EntryCashIn               EntryKind = "cash_in"
	EntryCashOut              EntryKind = "cash_out"
	EntryCashRefund           EntryKind = "cash_refund"
	EntryAdjustmentDelta      EntryKind = "adjustment_delta"
	EntryAdjustmentCorrection EntryKind = "adjustment_correction"
	EntryTransferOut          EntryKind = "transfer_out"
	EntryTransferIn           EntryKind = "transfer_in"
	EntryPurchase             EntryKind = "purchase"
	EntryPointsEarn           EntryKind = "points_earn"
	EntryPointsRedeem         EntryKind = "points_redeem"
)

// LedgerEntry is the immutable record of one balance mutation.
//
// Invariant: BalanceAfter equals the holder's balance immediately after
// applying Delta, and the holder's current balance always equals the
// BalanceAfter of its most recent entry. The mutation engine exists to
// guarantee exactly this.
type LedgerEntry struct {
	ID            string
	Holder        HolderRef
	Delta         decimal.Decimal
	BalanceAfter  decimal.Decimal
	Kind          EntryKind
	ReferenceType string
	ReferenceID   string
	ActorID       string
	Note          string
	CreatedAt     time.Time
}
