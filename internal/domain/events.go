package domain

import "time"

// Event types
const (
	EventSaleCompleted    = "sale.completed"
	EventSaleVoided       = "sale.voided"
	EventReturnProcessed  = "return.processed"
	EventGiftCardIssued   = "giftcard.issued"
	EventGiftCardRedeemed = "giftcard.redeemed"
	EventRegisterOpened   = "register.opened"
	EventRegisterClosed   = "register.closed"
	EventStockAdjusted    = "stock.adjusted"
	EventStockTransferred = "stock.transferred"
	EventPurchaseReceived = "purchase.received"
	EventLowStock         = "stock.low"
)

// Aggregate types
const (
	AggregateSale     = "sale"
	AggregateReturn   = "return"
	AggregateGiftCard = "gift_card"
	AggregateRegister = "register"
	AggregateStock    = "stock"
	AggregatePurchase = "purchase"
)

// OutboxEvent is an event row written in the same transaction as the state
// change it describes, published later by the outbox worker.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
