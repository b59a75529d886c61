package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation when the store reports a transient failure
// (deadlock victim, serialization failure).
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// BalanceRepository gives the mutation engine uniform access to every
// balance-holder table. GetForUpdate must acquire row locks
// (SELECT ... FOR UPDATE) in the order the refs are passed.
type BalanceRepository interface {
	GetForUpdate(ctx context.Context, tx Transaction, refs []domain.HolderRef) ([]*domain.Balance, error)
	UpdateBalance(ctx context.Context, tx Transaction, ref domain.HolderRef, balance decimal.Decimal, updatedAt time.Time) error
	// Get reads one holder's balance without locking it.
	Get(ctx context.Context, ref domain.HolderRef) (*domain.Balance, error)
}

// LedgerRepository defines data access for ledger entries.
type LedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByHolder(ctx context.Context, ref domain.HolderRef, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error)
	LatestByHolder(ctx context.Context, ref domain.HolderRef) (*domain.LedgerEntry, error)
	SumDeltas(ctx context.Context, ref domain.HolderRef) (decimal.Decimal, error)
	ListHolders(ctx context.Context, kind domain.HolderKind, limit, offset int) ([]domain.HolderRef, error)
}

// ProductRepository defines data access for products and locations.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Product, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error

	CreateLocation(ctx context.Context, location *domain.Location) error
	GetLocation(ctx context.Context, id string) (*domain.Location, error)
	ListLocations(ctx context.Context) ([]*domain.Location, error)
}

// StockRepository defines data access for per-location stock levels.
type StockRepository interface {
	// Ensure returns the stock row for (product, location), creating a
	// zero-quantity row when none exists yet.
	Ensure(ctx context.Context, productID, locationID string) (*domain.StockLevel, error)
	Get(ctx context.Context, productID, locationID string) (*domain.StockLevel, error)
	GetByID(ctx context.Context, id string) (*domain.StockLevel, error)
	ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]*domain.StockLevel, error)
	LowStock(ctx context.Context, locationID string) ([]*domain.StockLevel, error)
}

// GiftCardRepository defines data access for gift cards.
type GiftCardRepository interface {
	Create(ctx context.Context, tx Transaction, card *domain.GiftCard) error
	GetByCode(ctx context.Context, code string) (*domain.GiftCard, error)
	GetByID(ctx context.Context, id string) (*domain.GiftCard, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.GiftCardStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.GiftCard, error)
}

// RegisterRepository defines data access for cash-register sessions.
type RegisterRepository interface {
	Create(ctx context.Context, tx Transaction, register *domain.CashRegister) error
	GetByID(ctx context.Context, id string) (*domain.CashRegister, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.CashRegister, error)
	GetOpen(ctx context.Context) (*domain.CashRegister, error)
	AddToTotal(ctx context.Context, tx Transaction, id, column string, amount decimal.Decimal) error
	Close(ctx context.Context, tx Transaction, register *domain.CashRegister) error
	CreateMovement(ctx context.Context, tx Transaction, movement *domain.CashMovement) error
	ListMovements(ctx context.Context, registerID string) ([]*domain.CashMovement, error)
	History(ctx context.Context, limit, offset int) ([]*domain.CashRegister, error)
}

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Customer, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
}

// SaleRepository defines data access for sales.
type SaleRepository interface {
	Create(ctx context.Context, tx Transaction, sale *domain.Sale) error
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]*domain.Sale, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.SaleStatus) error
	// GetStatusForUpdate reads and locks a sale's status within the given
	// transaction, so returns and voids of the same sale serialize.
	GetStatusForUpdate(ctx context.Context, tx Transaction, id string) (domain.SaleStatus, error)
	// SoldQuantities returns quantity sold per product for one sale,
	// read within the given transaction.
	SoldQuantities(ctx context.Context, tx Transaction, saleID string) (map[string]decimal.Decimal, error)
	// Summarize aggregates completed sales over [from, to).
	Summarize(ctx context.Context, from, to time.Time) (*SalesSummary, error)
}

// SalesSummary aggregates completed sales over a period.
type SalesSummary struct {
	From            time.Time                                `json:"from"`
	To              time.Time                                `json:"to"`
	SaleCount       int64                                    `json:"sale_count"`
	GrossAmount     decimal.Decimal                          `json:"gross_amount"`
	DiscountAmount  decimal.Decimal                          `json:"discount_amount"`
	NetAmount       decimal.Decimal                          `json:"net_amount"`
	ByPaymentMethod map[domain.PaymentMethod]decimal.Decimal `json:"by_payment_method"`
}

// SaleFilter narrows sale listings.
type SaleFilter struct {
	CustomerID string
	LocationID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ReturnRepository defines data access for returns.
type ReturnRepository interface {
	Create(ctx context.Context, tx Transaction, ret *domain.Return) error
	GetByID(ctx context.Context, id string) (*domain.Return, error)
	ListBySale(ctx context.Context, saleID string) ([]*domain.Return, error)
	// ReturnedQuantities returns quantity already returned per product for
	// one sale, read within the given transaction. The over-return guard
	// recomputes from this every time; it is never cached.
	ReturnedQuantities(ctx context.Context, tx Transaction, saleID string) (map[string]decimal.Decimal, error)
	// HasReturns reports whether any return exists for the sale.
	HasReturns(ctx context.Context, tx Transaction, saleID string) (bool, error)
}

// AdjustmentRepository defines data access for stock adjustments.
type AdjustmentRepository interface {
	Create(ctx context.Context, tx Transaction, adjustment *domain.StockAdjustment) error
	List(ctx context.Context, productID string, limit, offset int) ([]*domain.StockAdjustment, error)
}

// TransferRepository defines data access for stock transfers.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.StockTransfer) error
	GetByID(ctx context.Context, id string) (*domain.StockTransfer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.StockTransfer, error)
	Decide(ctx context.Context, tx Transaction, id string, status domain.TransferStatus, decidedBy string, decidedAt time.Time) error
	List(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.StockTransfer, error)
}

// SupplierRepository defines data access for suppliers.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
	GetByID(ctx context.Context, id string) (*domain.Supplier, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Supplier, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
}

// PurchaseRepository defines data access for goods receipts.
type PurchaseRepository interface {
	Create(ctx context.Context, tx Transaction, purchase *domain.Purchase) error
	GetByID(ctx context.Context, id string) (*domain.Purchase, error)
	List(ctx context.Context, supplierID string, limit, offset int) ([]*domain.Purchase, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
