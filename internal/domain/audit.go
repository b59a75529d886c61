package domain

import (
	"encoding/json"
	"time"
)

// AuditLog is an append-only record of who did what. It is written after a
// successful commit by default; failed operations are not audited.
type AuditLog struct {
	ID         string
	ActorID    string
	ActorName  string
	Action     string
	EntityType string
	EntityID   string
	Details    JSON
	IPAddress  string
	RequestID  string
	CreatedAt  time.Time
}

// JSON is a type alias for JSON data.
type JSON map[string]any

// AuditAction names for the balance-touching operations.
const (
	AuditSaleCheckout    = "sale.checkout"
	AuditSaleVoid        = "sale.void"
	AuditReturnCreate    = "return.create"
	AuditGiftCardIssue   = "giftcard.issue"
	AuditGiftCardLoad    = "giftcard.load"
	AuditGiftCardRedeem  = "giftcard.redeem"
	AuditGiftCardDisable = "giftcard.disable"
	AuditRegisterOpen    = "register.open"
	AuditRegisterClose   = "register.close"
	AuditCashIn          = "register.cash_in"
	AuditCashOut         = "register.cash_out"
	AuditStockAdjust     = "stock.adjust"
	AuditTransferApprove = "stock.transfer_approve"
	AuditPurchaseReceive = "purchase.receive"
	AuditPointsEarn      = "loyalty.earn"
	AuditPointsRedeem    = "loyalty.redeem"
	AuditUserLogin       = "user.login"
)

// MarshalState converts a domain object to JSON for audit details.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs.
type AuditFilter struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
