package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// UserResponse represents a staff account in API responses.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// UsersFromDomain converts domain users to responses.
func UsersFromDomain(users []*domain.User) []*UserResponse {
	result := make([]*UserResponse, len(users))
	for i, u := range users {
		result[i] = UserFromDomain(u)
	}
	return result
}

// LoginResponse represents a successful login.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	MinStock  decimal.Decimal `json:"min_stock"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductFromDomain converts a domain product to a response.
func ProductFromDomain(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		MinStock:  p.MinStock,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ProductsFromDomain converts domain products to responses.
func ProductsFromDomain(products []*domain.Product) []*ProductResponse {
	result := make([]*ProductResponse, len(products))
	for i, p := range products {
		result[i] = ProductFromDomain(p)
	}
	return result
}

// LocationResponse represents a location in API responses.
type LocationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationFromDomain converts a domain location to a response.
func LocationFromDomain(l *domain.Location) *LocationResponse {
	return &LocationResponse{ID: l.ID, Name: l.Name, CreatedAt: l.CreatedAt}
}

// LocationsFromDomain converts domain locations to responses.
func LocationsFromDomain(locations []*domain.Location) []*LocationResponse {
	result := make([]*LocationResponse, len(locations))
	for i, l := range locations {
		result[i] = LocationFromDomain(l)
	}
	return result
}

// StockLevelResponse represents a stock row in API responses.
type StockLevelResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// StockLevelFromDomain converts a domain stock level to a response.
func StockLevelFromDomain(s *domain.StockLevel) *StockLevelResponse {
	return &StockLevelResponse{
		ID:         s.ID,
		ProductID:  s.ProductID,
		LocationID: s.LocationID,
		Quantity:   s.Quantity,
		UpdatedAt:  s.UpdatedAt,
	}
}

// StockLevelsFromDomain converts domain stock levels to responses.
func StockLevelsFromDomain(levels []*domain.StockLevel) []*StockLevelResponse {
	result := make([]*StockLevelResponse, len(levels))
	for i, s := range levels {
		result[i] = StockLevelFromDomain(s)
	}
	return result
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	LoyaltyPoints decimal.Decimal `json:"loyalty_points"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CustomerFromDomain converts a domain customer to a response.
func CustomerFromDomain(c *domain.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:            c.ID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CustomersFromDomain converts domain customers to responses.
func CustomersFromDomain(customers []*domain.Customer) []*CustomerResponse {
	result := make([]*CustomerResponse, len(customers))
	for i, c := range customers {
		result[i] = CustomerFromDomain(c)
	}
	return result
}

// SupplierResponse represents a supplier in API responses.
type SupplierResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupplierFromDomain converts a domain supplier to a response.
func SupplierFromDomain(s *domain.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// SuppliersFromDomain converts domain suppliers to responses.
func SuppliersFromDomain(suppliers []*domain.Supplier) []*SupplierResponse {
	result := make([]*SupplierResponse, len(suppliers))
	for i, s := range suppliers {
		result[i] = SupplierFromDomain(s)
	}
	return result
}

// GiftCardResponse represents a gift card in API responses.
type GiftCardResponse struct {
	ID        string                `json:"id"`
	Code      string                `json:"code"`
	Balance   decimal.Decimal       `json:"balance"`
	Status    domain.GiftCardStatus `json:"status"`
	ExpiresAt *time.Time            `json:"expires_at,omitempty"`
	IssuedTo  string                `json:"issued_to,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// GiftCardFromDomain converts a domain gift card to a response.
func GiftCardFromDomain(g *domain.GiftCard) *GiftCardResponse {
	return &GiftCardResponse{
		ID:        g.ID,
		Code:      g.Code,
		Balance:   g.Balance,
		Status:    g.Status,
		ExpiresAt: g.ExpiresAt,
		IssuedTo:  g.IssuedTo,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// GiftCardsFromDomain converts domain gift cards to responses.
func GiftCardsFromDomain(cards []*domain.GiftCard) []*GiftCardResponse {
	result := make([]*GiftCardResponse, len(cards))
	for i, g := range cards {
		result[i] = GiftCardFromDomain(g)
	}
	return result
}

// RegisterResponse represents a drawer session in API responses.
type RegisterResponse struct {
	ID              string                `json:"id"`
	LocationID      string                `json:"location_id"`
	Status          domain.RegisterStatus `json:"status"`
	OpeningBalance  decimal.Decimal       `json:"opening_balance"`
	CashOnHand      decimal.Decimal       `json:"cash_on_hand"`
	CashSalesTotal  decimal.Decimal       `json:"cash_sales_total"`
	TotalCashIn     decimal.Decimal       `json:"total_cash_in"`
	TotalCashOut    decimal.Decimal       `json:"total_cash_out"`
	ClosingBalance  decimal.Decimal       `json:"closing_balance"`
	ExpectedBalance decimal.Decimal       `json:"expected_balance"`
	Difference      decimal.Decimal       `json:"difference"`
	OpenedBy        string                `json:"opened_by"`
	ClosedBy        string                `json:"closed_by,omitempty"`
	OpenedAt        time.Time             `json:"opened_at"`
	ClosedAt        *time.Time            `json:"closed_at,omitempty"`
}

// RegisterFromDomain converts a domain register to a response.
func RegisterFromDomain(r *domain.CashRegister) *RegisterResponse {
	return &RegisterResponse{
		ID:              r.ID,
		LocationID:      r.LocationID,
		Status:          r.Status,
		OpeningBalance:  r.OpeningBalance,
		CashOnHand:      r.CashOnHand,
		CashSalesTotal:  r.CashSalesTotal,
		TotalCashIn:     r.TotalCashIn,
		TotalCashOut:    r.TotalCashOut,
		ClosingBalance:  r.ClosingBalance,
		ExpectedBalance: r.ExpectedBalance,
		Difference:      r.Difference,
		OpenedBy:        r.OpenedBy,
		ClosedBy:        r.ClosedBy,
		OpenedAt:        r.OpenedAt,
		ClosedAt:        r.ClosedAt,
	}
}

// RegistersFromDomain converts domain registers to responses.
func RegistersFromDomain(registers []*domain.CashRegister) []*RegisterResponse {
	result := make([]*RegisterResponse, len(registers))
	for i, r := range registers {
		result[i] = RegisterFromDomain(r)
	}
	return result
}

// MovementResponse represents a drawer movement in API responses.
type MovementResponse struct {
	ID         string              `json:"id"`
	RegisterID string              `json:"register_id"`
	Kind       domain.MovementKind `json:"kind"`
	Amount     decimal.Decimal     `json:"amount"`
	Reason     string              `json:"reason"`
	ActorID    string              `json:"actor_id"`
	CreatedAt  time.Time           `json:"created_at"`
}

// MovementFromDomain converts a domain movement to a response.
func MovementFromDomain(m *domain.CashMovement) *MovementResponse {
	return &MovementResponse{
		ID:         m.ID,
		RegisterID: m.RegisterID,
		Kind:       m.Kind,
		Amount:     m.Amount,
		Reason:     m.Reason,
		ActorID:    m.ActorID,
		CreatedAt:  m.CreatedAt,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.CashMovement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// SaleLineResponse represents a sale line in API responses.
type SaleLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customer_id,omitempty"`
	LocationID    string               `json:"location_id"`
	RegisterID    string               `json:"register_id,omitempty"`
	Lines         []SaleLineResponse   `json:"lines"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Discount      decimal.Decimal      `json:"discount"`
	NetAmount     decimal.Decimal      `json:"net_amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	GiftCardCode  string               `json:"gift_card_code,omitempty"`
	Status        domain.SaleStatus    `json:"status"`
	SoldBy        string               `json:"sold_by"`
	CreatedAt     time.Time            `json:"created_at"`
}

// SaleFromDomain converts a domain sale to a response.
func SaleFromDomain(s *domain.Sale) *SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		}
	}
	return &SaleResponse{
		ID:            s.ID,
		CustomerID:    s.CustomerID,
		LocationID:    s.LocationID,
		RegisterID:    s.RegisterID,
		Lines:         lines,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		NetAmount:     s.NetAmount,
		PaymentMethod: s.PaymentMethod,
		GiftCardCode:  s.GiftCardCode,
		Status:        s.Status,
		SoldBy:        s.SoldBy,
		CreatedAt:     s.CreatedAt,
	}
}

// SalesFromDomain converts domain sales to responses.
func SalesFromDomain(sales []*domain.Sale) []*SaleResponse {
	result := make([]*SaleResponse, len(sales))
	for i, s := range sales {
		result[i] = SaleFromDomain(s)
	}
	return result
}

// ReturnLineResponse represents a return line in API responses.
type ReturnLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ReturnResponse represents a return in API responses.
type ReturnResponse struct {
	ID           string               `json:"id"`
	SaleID       string               `json:"sale_id"`
	Lines        []ReturnLineResponse `json:"lines"`
	RefundAmount decimal.Decimal      `json:"refund_amount"`
	RefundMethod domain.RefundMethod  `json:"refund_method"`
	Reason       string               `json:"reason,omitempty"`
	ProcessedBy  string               `json:"processed_by"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ReturnFromDomain converts a domain return to a response.
func ReturnFromDomain(ret *domain.Return) *ReturnResponse {
	lines := make([]ReturnLineResponse, len(ret.Lines))
	for i, l := range ret.Lines {
		lines[i] = ReturnLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return &ReturnResponse{
		ID:           ret.ID,
		SaleID:       ret.SaleID,
		Lines:        lines,
		RefundAmount: ret.RefundAmount,
		RefundMethod: ret.RefundMethod,
		Reason:       ret.Reason,
		ProcessedBy:  ret.ProcessedBy,
		CreatedAt:    ret.CreatedAt,
	}
}

// ReturnsFromDomain converts domain returns to responses.
func ReturnsFromDomain(returns []*domain.Return) []*ReturnResponse {
	result := make([]*ReturnResponse, len(returns))
	for i, ret := range returns {
		result[i] = ReturnFromDomain(ret)
	}
	return result
}

// AdjustmentResponse represents a stock adjustment in API responses.
type AdjustmentResponse struct {
	ID         string                `json:"id"`
	ProductID  string                `json:"product_id"`
	LocationID string                `json:"location_id"`
	Kind       domain.AdjustmentKind `json:"kind"`
	Quantity   decimal.Decimal       `json:"quantity"`
	Reason     string                `json:"reason"`
	AdjustedBy string                `json:"adjusted_by"`
	CreatedAt  time.Time             `json:"created_at"`
}

// AdjustmentFromDomain converts a domain adjustment to a response.
func AdjustmentFromDomain(a *domain.StockAdjustment) *AdjustmentResponse {
	return &AdjustmentResponse{
		ID:         a.ID,
		ProductID:  a.ProductID,
		LocationID: a.LocationID,
		Kind:       a.Kind,
		Quantity:   a.Quantity,
		Reason:     a.Reason,
		AdjustedBy: a.AdjustedBy,
		CreatedAt:  a.CreatedAt,
	}
}

// AdjustmentsFromDomain converts domain adjustments to responses.
func AdjustmentsFromDomain(adjustments []*domain.StockAdjustment) []*AdjustmentResponse {
	result := make([]*AdjustmentResponse, len(adjustments))
	for i, a := range adjustments {
		result[i] = AdjustmentFromDomain(a)
	}
	return result
}

// TransferResponse represents a stock transfer in API responses.
type TransferResponse struct {
	ID             string                `json:"id"`
	ProductID      string                `json:"product_id"`
	FromLocationID string                `json:"from_location_id"`
	ToLocationID   string                `json:"to_location_id"`
	Quantity       decimal.Decimal       `json:"quantity"`
	Status         domain.TransferStatus `json:"status"`
	RequestedBy    string                `json:"requested_by"`
	DecidedBy      string                `json:"decided_by,omitempty"`
	Note           string                `json:"note,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	DecidedAt      *time.Time            `json:"decided_at,omitempty"`
}

// TransferFromDomain converts a domain transfer to a response.
func TransferFromDomain(t *domain.StockTransfer) *TransferResponse {
	return &TransferResponse{
		ID:             t.ID,
		ProductID:      t.ProductID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Quantity:       t.Quantity,
		Status:         t.Status,
		RequestedBy:    t.RequestedBy,
		DecidedBy:      t.DecidedBy,
		Note:           t.Note,
		CreatedAt:      t.CreatedAt,
		DecidedAt:      t.DecidedAt,
	}
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.StockTransfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// PurchaseLineResponse represents a purchase line in API responses.
type PurchaseLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// PurchaseResponse represents a goods receipt in API responses.
type PurchaseResponse struct {
	ID         string                 `json:"id"`
	SupplierID string                 `json:"supplier_id"`
	LocationID string                 `json:"location_id"`
	Lines      []PurchaseLineResponse `json:"lines"`
	Total      decimal.Decimal        `json:"total"`
	ReceivedBy string                 `json:"received_by"`
	CreatedAt  time.Time              `json:"created_at"`
}

// PurchaseFromDomain converts a domain purchase to a response.
func PurchaseFromDomain(p *domain.Purchase) *PurchaseResponse {
	lines := make([]PurchaseLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = PurchaseLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		}
	}
	return &PurchaseResponse{
		ID:         p.ID,
		SupplierID: p.SupplierID,
		LocationID: p.LocationID,
		Lines:      lines,
		Total:      p.Total,
		ReceivedBy: p.ReceivedBy,
		CreatedAt:  p.CreatedAt,
	}
}

// PurchasesFromDomain converts domain purchases to responses.
func PurchasesFromDomain(purchases []*domain.Purchase) []*PurchaseResponse {
	result := make([]*PurchaseResponse, len(purchases))
	for i, p := range purchases {
		result[i] = PurchaseFromDomain(p)
	}
	return result
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID            string            `json:"id"`
	HolderKind    domain.HolderKind `json:"holder_kind"`
	HolderID      string            `json:"holder_id"`
	Delta         decimal.Decimal   `json:"delta"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	Kind          domain.EntryKind  `json:"kind"`
	ReferenceType string            `json:"reference_type,omitempty"`
	ReferenceID   string            `json:"reference_id,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	Note          string            `json:"note,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// LedgerEntryFromDomain converts a domain ledger entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:            e.ID,
		HolderKind:    e.Holder.Kind,
		HolderID:      e.Holder.ID,
		Delta:         e.Delta,
		BalanceAfter:  e.BalanceAfter,
		Kind:          e.Kind,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		ActorID:       e.ActorID,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts domain ledger entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// AuditLogResponse represents an audit log in API responses.
type AuditLogResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	ActorName  string         `json:"actor_name,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditLogFromDomain converts a domain audit log to a response.
func AuditLogFromDomain(l *domain.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:         l.ID,
		ActorID:    l.ActorID,
		ActorName:  l.ActorName,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Details:    l.Details,
		IPAddress:  l.IPAddress,
		RequestID:  l.RequestID,
		CreatedAt:  l.CreatedAt,
	}
}

// AuditLogsFromDomain converts domain audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = AuditLogFromDomain(l)
	}
	return result
}

// ListResponse wraps a collection with its count.
type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// NewListResponse builds a ListResponse from a slice.
func NewListResponse[T any](items []T) ListResponse[T] {
	return ListResponse[T]{Items: items, Total: int64(len(items))}
}
