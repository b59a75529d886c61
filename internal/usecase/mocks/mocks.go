package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu    sync.Mutex
	Began []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Began = append(m.Began, tx)
	return tx, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRetrier is a mock implementation of Retrier. By default it runs the
// operation once; Attempts counts invocations.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error

	mu       sync.Mutex
	Attempts int
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	m.mu.Lock()
	m.Attempts++
	m.mu.Unlock()
	return operation()
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[domain.HolderRef]*domain.Balance

	GetForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, refs []domain.HolderRef) ([]*domain.Balance, error)
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, ref domain.HolderRef, balance decimal.Decimal, updatedAt time.Time) error
	GetFunc           func(ctx context.Context, ref domain.HolderRef) (*domain.Balance, error)

	// LockOrder records the ref slices passed to GetForUpdate.
	LockOrder [][]domain.HolderRef
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[domain.HolderRef]*domain.Balance),
	}
}

// Seed installs a holder with the given balance.
func (m *MockBalanceRepository) Seed(ref domain.HolderRef, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[ref] = &domain.Balance{Ref: ref, Amount: amount}
}

// SeedWithStatus installs a holder with a balance and a status, for holders
// whose mutations carry status preconditions.
func (m *MockBalanceRepository) SeedWithStatus(ref domain.HolderRef, amount decimal.Decimal, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[ref] = &domain.Balance{Ref: ref, Amount: amount, Status: status}
}

// BalanceOf returns the current balance of a seeded holder.
func (m *MockBalanceRepository) BalanceOf(ref domain.HolderRef) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[ref]; ok {
		return b.Amount
	}
	return decimal.Zero
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, refs []domain.HolderRef) ([]*domain.Balance, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, refs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockOrder = append(m.LockOrder, append([]domain.HolderRef(nil), refs...))
	var rows []*domain.Balance
	for _, ref := range refs {
		if b, ok := m.balances[ref]; ok {
			row := *b
			rows = append(rows, &row)
		}
	}
	return rows, nil
}

func (m *MockBalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, ref domain.HolderRef, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, ref, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.balances[ref]; ok {
		b.Amount = balance
		b.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockBalanceRepository) Get(ctx context.Context, ref domain.HolderRef) (*domain.Balance, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.balances[ref]; ok {
		row := *b
		return &row, nil
	}
	return nil, domain.ErrHolderNotFound
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mu      sync.RWMutex
	Entries []*domain.LedgerEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockLedgerRepository) ListByHolder(ctx context.Context, ref domain.HolderRef, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.Entries {
		if e.Holder == ref {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockLedgerRepository) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for _, e := range m.Entries {
		if e.ReferenceType == referenceType && e.ReferenceID == referenceID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *MockLedgerRepository) LatestByHolder(ctx context.Context, ref domain.HolderRef) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].Holder == ref {
			return m.Entries[i], nil
		}
	}
	return nil, nil
}

func (m *MockLedgerRepository) SumDeltas(ctx context.Context, ref domain.HolderRef) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.Entries {
		if e.Holder == ref {
			sum = sum.Add(e.Delta)
		}
	}
	return sum, nil
}

func (m *MockLedgerRepository) ListHolders(ctx context.Context, kind domain.HolderKind, limit, offset int) ([]domain.HolderRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[domain.HolderRef]bool)
	var refs []domain.HolderRef
	for _, e := range m.Entries {
		if e.Holder.Kind == kind && !seen[e.Holder] {
			seen[e.Holder] = true
			refs = append(refs, e.Holder)
		}
	}
	return refs, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Events[:0]
	for _, e := range m.Events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.Events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu     sync.RWMutex
	Logs   []*domain.AuditLog
	TxLogs []*domain.AuditLog

	CreateFunc   func(ctx context.Context, log *domain.AuditLog) error
	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
	ListFunc     func(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TxLogs = append(m.TxLogs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.Logs...), nil
}

// MockGiftCardRepository is a mock implementation of GiftCardRepository.
type MockGiftCardRepository struct {
	mu    sync.RWMutex
	cards map[string]*domain.GiftCard

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, card *domain.GiftCard) error
	GetByCodeFunc    func(ctx context.Context, code string) (*domain.GiftCard, error)
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.GiftCardStatus, updatedAt time.Time) error
}

func NewMockGiftCardRepository() *MockGiftCardRepository {
	return &MockGiftCardRepository{
		cards: make(map[string]*domain.GiftCard),
	}
}

func (m *MockGiftCardRepository) Create(ctx context.Context, tx usecase.Transaction, card *domain.GiftCard) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, card)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
	return nil
}

func (m *MockGiftCardRepository) GetByCode(ctx context.Context, code string) (*domain.GiftCard, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cards {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, domain.ErrGiftCardNotFound
}

func (m *MockGiftCardRepository) GetByID(ctx context.Context, id string) (*domain.GiftCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cards[id]; ok {
		return c, nil
	}
	return nil, domain.ErrGiftCardNotFound
}

func (m *MockGiftCardRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.GiftCardStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cards[id]; ok {
		c.Status = status
		c.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockGiftCardRepository) List(ctx context.Context, limit, offset int) ([]*domain.GiftCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var cards []*domain.GiftCard
	for _, c := range m.cards {
		cards = append(cards, c)
	}
	return cards, nil
}

// MockRegisterRepository is a mock implementation of RegisterRepository.
type MockRegisterRepository struct {
	mu        sync.RWMutex
	registers map[string]*domain.CashRegister
	movements []*domain.CashMovement

	GetOpenFunc func(ctx context.Context) (*domain.CashRegister, error)
	CloseFunc   func(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error
}

func NewMockRegisterRepository() *MockRegisterRepository {
	return &MockRegisterRepository{
		registers: make(map[string]*domain.CashRegister),
	}
}

func (m *MockRegisterRepository) Create(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers[register.ID] = register
	return nil
}

func (m *MockRegisterRepository) GetByID(ctx context.Context, id string) (*domain.CashRegister, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.registers[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRegisterNotFound
}

func (m *MockRegisterRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashRegister, error) {
	return m.GetByID(ctx, id)
}

func (m *MockRegisterRepository) GetOpen(ctx context.Context) (*domain.CashRegister, error) {
	if m.GetOpenFunc != nil {
		return m.GetOpenFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.registers {
		if r.Status == domain.RegisterOpen {
			return r, nil
		}
	}
	return nil, domain.ErrRegisterNotFound
}

func (m *MockRegisterRepository) AddToTotal(ctx context.Context, tx usecase.Transaction, id, column string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registers[id]
	if !ok {
		return domain.ErrRegisterNotFound
	}
	switch column {
	case "cash_sales_total":
		r.CashSalesTotal = r.CashSalesTotal.Add(amount)
	case "total_cash_in":
		r.TotalCashIn = r.TotalCashIn.Add(amount)
	case "total_cash_out":
		r.TotalCashOut = r.TotalCashOut.Add(amount)
	}
	return nil
}

func (m *MockRegisterRepository) Close(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, tx, register)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers[register.ID] = register
	return nil
}

func (m *MockRegisterRepository) CreateMovement(ctx context.Context, tx usecase.Transaction, movement *domain.CashMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movements = append(m.movements, movement)
	return nil
}

func (m *MockRegisterRepository) ListMovements(ctx context.Context, registerID string) ([]*domain.CashMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var movements []*domain.CashMovement
	for _, mv := range m.movements {
		if mv.RegisterID == registerID {
			movements = append(movements, mv)
		}
	}
	return movements, nil
}

func (m *MockRegisterRepository) History(ctx context.Context, limit, offset int) ([]*domain.CashRegister, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var registers []*domain.CashRegister
	for _, r := range m.registers {
		registers = append(registers, r)
	}
	return registers, nil
}

// MockSaleRepository is a mock implementation of SaleRepository.
type MockSaleRepository struct {
	mu    sync.RWMutex
	sales map[string]*domain.Sale

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error
	GetStatusForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (domain.SaleStatus, error)
	SummarizeFunc          func(ctx context.Context, from, to time.Time) (*usecase.SalesSummary, error)
}

func NewMockSaleRepository() *MockSaleRepository {
	return &MockSaleRepository{
		sales: make(map[string]*domain.Sale),
	}
}

func (m *MockSaleRepository) Create(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, sale)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[sale.ID] = sale
	return nil
}

func (m *MockSaleRepository) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sales[id]; ok {
		return s, nil
	}
	return nil, domain.ErrSaleNotFound
}

func (m *MockSaleRepository) List(ctx context.Context, filter usecase.SaleFilter) ([]*domain.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sales []*domain.Sale
	for _, s := range m.sales {
		sales = append(sales, s)
	}
	return sales, nil
}

func (m *MockSaleRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.SaleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sales[id]; ok {
		s.Status = status
	}
	return nil
}

func (m *MockSaleRepository) GetStatusForUpdate(ctx context.Context, tx usecase.Transaction, id string) (domain.SaleStatus, error) {
	if m.GetStatusForUpdateFunc != nil {
		return m.GetStatusForUpdateFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sales[id]; ok {
		return s.Status, nil
	}
	return "", domain.ErrSaleNotFound
}

func (m *MockSaleRepository) SoldQuantities(ctx context.Context, tx usecase.Transaction, saleID string) (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sold := make(map[string]decimal.Decimal)
	if s, ok := m.sales[saleID]; ok {
		for _, line := range s.Lines {
			sold[line.ProductID] = sold[line.ProductID].Add(line.Quantity)
		}
	}
	return sold, nil
}

func (m *MockSaleRepository) Summarize(ctx context.Context, from, to time.Time) (*usecase.SalesSummary, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, from, to)
	}
	return &usecase.SalesSummary{From: from, To: to}, nil
}

// MockReturnRepository is a mock implementation of ReturnRepository.
type MockReturnRepository struct {
	mu      sync.RWMutex
	returns map[string]*domain.Return

	CreateFunc func(ctx context.Context, tx usecase.Transaction, ret *domain.Return) error
}

func NewMockReturnRepository() *MockReturnRepository {
	return &MockReturnRepository{
		returns: make(map[string]*domain.Return),
	}
}

func (m *MockReturnRepository) Create(ctx context.Context, tx usecase.Transaction, ret *domain.Return) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, ret)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returns[ret.ID] = ret
	return nil
}

func (m *MockReturnRepository) GetByID(ctx context.Context, id string) (*domain.Return, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.returns[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReturnNotFound
}

func (m *MockReturnRepository) ListBySale(ctx context.Context, saleID string) ([]*domain.Return, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var returns []*domain.Return
	for _, r := range m.returns {
		if r.SaleID == saleID {
			returns = append(returns, r)
		}
	}
	return returns, nil
}

func (m *MockReturnRepository) ReturnedQuantities(ctx context.Context, tx usecase.Transaction, saleID string) (map[string]decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	returned := make(map[string]decimal.Decimal)
	for _, r := range m.returns {
		if r.SaleID != saleID {
			continue
		}
		for _, line := range r.Lines {
			returned[line.ProductID] = returned[line.ProductID].Add(line.Quantity)
		}
	}
	return returned, nil
}

func (m *MockReturnRepository) HasReturns(ctx context.Context, tx usecase.Transaction, saleID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.returns {
		if r.SaleID == saleID {
			return true, nil
		}
	}
	return false, nil
}

// MockStockRepository is a mock implementation of StockRepository.
type MockStockRepository struct {
	mu     sync.RWMutex
	levels map[string]*domain.StockLevel

	LowStockFunc func(ctx context.Context, locationID string) ([]*domain.StockLevel, error)
}

func NewMockStockRepository() *MockStockRepository {
	return &MockStockRepository{
		levels: make(map[string]*domain.StockLevel),
	}
}

// SeedLevel installs a stock row and returns it.
func (m *MockStockRepository) SeedLevel(level *domain.StockLevel) *domain.StockLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[level.ProductID+"|"+level.LocationID] = level
	return level
}

func (m *MockStockRepository) Ensure(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := productID + "|" + locationID
	if l, ok := m.levels[key]; ok {
		return l, nil
	}
	l := &domain.StockLevel{
		ID:         "stock-" + key,
		ProductID:  productID,
		LocationID: locationID,
		Quantity:   decimal.Zero,
	}
	m.levels[key] = l
	return l, nil
}

func (m *MockStockRepository) Get(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.levels[productID+"|"+locationID]; ok {
		return l, nil
	}
	return nil, domain.ErrHolderNotFound
}

func (m *MockStockRepository) GetByID(ctx context.Context, id string) (*domain.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.levels {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, domain.ErrHolderNotFound
}

func (m *MockStockRepository) ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]*domain.StockLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var levels []*domain.StockLevel
	for _, l := range m.levels {
		if l.LocationID == locationID {
			levels = append(levels, l)
		}
	}
	return levels, nil
}

func (m *MockStockRepository) LowStock(ctx context.Context, locationID string) ([]*domain.StockLevel, error) {
	if m.LowStockFunc != nil {
		return m.LowStockFunc(ctx, locationID)
	}
	return nil, nil
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mu        sync.RWMutex
	products  map[string]*domain.Product
	locations map[string]*domain.Location
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products:  make(map[string]*domain.Product),
		locations: make(map[string]*domain.Location),
	}
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *MockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockProductRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var products []*domain.Product
	for _, p := range m.products {
		if activeOnly && !p.IsActive {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (m *MockProductRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.IsActive = active
		p.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockProductRepository) CreateLocation(ctx context.Context, location *domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[location.ID] = location
	return nil
}

func (m *MockProductRepository) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.locations[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLocationNotFound
}

func (m *MockProductRepository) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var locations []*domain.Location
	for _, l := range m.locations {
		locations = append(locations, l)
	}
	return locations, nil
}

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.Customer),
	}
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
	return nil
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (m *MockCustomerRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var customers []*domain.Customer
	for _, c := range m.customers {
		if activeOnly && !c.IsActive {
			continue
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (m *MockCustomerRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		c.IsActive = active
		c.UpdatedAt = updatedAt
	}
	return nil
}
