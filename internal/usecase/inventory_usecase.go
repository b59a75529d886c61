package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
)

// InventoryUseCase covers every stock movement that is not a sale or return:
// manual adjustments, inter-location transfers and goods receipts.
type InventoryUseCase struct {
	engine         *MutationEngine
	productRepo    ProductRepository
	stockRepo      StockRepository
	adjustmentRepo AdjustmentRepository
	transferRepo   TransferRepository
	supplierRepo   SupplierRepository
	purchaseRepo   PurchaseRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
}

// NewInventoryUseCase creates a new InventoryUseCase.
func NewInventoryUseCase(
	engine *MutationEngine,
	productRepo ProductRepository,
	stockRepo StockRepository,
	adjustmentRepo AdjustmentRepository,
	transferRepo TransferRepository,
	supplierRepo SupplierRepository,
	purchaseRepo PurchaseRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *InventoryUseCase {
	return &InventoryUseCase{
		engine:         engine,
		productRepo:    productRepo,
		stockRepo:      stockRepo,
		adjustmentRepo: adjustmentRepo,
		transferRepo:   transferRepo,
		supplierRepo:   supplierRepo,
		purchaseRepo:   purchaseRepo,
		idGen:          idGen,
		metrics:        metrics,
	}
}

// AdjustInput represents input for a manual stock adjustment.
type AdjustInput struct {
	ProductID  string
	LocationID string
	Kind       domain.AdjustmentKind
	Quantity   decimal.Decimal
	Reason     string
	ActorID    string
	ActorName  string
	IPAddress  string
}

// Adjust applies a manual stock change. Delta adjustments shift the level by
// the quantity; corrections set it to the counted quantity outright. Either
// way the resulting level cannot be negative and the ledger records the
// effective change.
func (uc *InventoryUseCase) Adjust(ctx context.Context, input AdjustInput) (*domain.StockAdjustment, error) {
	switch input.Kind {
	case domain.AdjustmentDelta:
		if input.Quantity.IsZero() {
			return nil, domain.PreconditionError("delta adjustment of zero changes nothing")
		}
	case domain.AdjustmentCorrection:
		if input.Quantity.IsNegative() {
			return nil, domain.PreconditionError("corrected stock count cannot be negative")
		}
	default:
		return nil, domain.PreconditionError("unknown adjustment kind %q", input.Kind)
	}
	if input.Reason == "" {
		return nil, domain.PreconditionError("stock adjustment requires a reason")
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	stock, err := uc.stockRepo.Ensure(ctx, product.ID, input.LocationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	adjustment := &domain.StockAdjustment{
		ID:         uc.idGen.Generate(),
		ProductID:  product.ID,
		LocationID: input.LocationID,
		Kind:       input.Kind,
		Quantity:   input.Quantity,
		Reason:     input.Reason,
		AdjustedBy: input.ActorID,
		CreatedAt:  now,
	}

	entryKind := domain.EntryAdjustmentDelta
	if input.Kind == domain.AdjustmentCorrection {
		entryKind = domain.EntryAdjustmentCorrection
	}

	req := MutationRequest{
		Refs:      []domain.HolderRef{stock.HolderRef()},
		Reference: Reference{Type: domain.AggregateStock, ID: adjustment.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			if err := uc.adjustmentRepo.Create(ctx, tx, adjustment); err != nil {
				return nil, err
			}
			return []Mutation{{
				Ref:           stock.HolderRef(),
				Delta:         input.Quantity,
				Absolute:      input.Kind == domain.AdjustmentCorrection,
				Kind:          entryKind,
				Preconditions: []domain.Precondition{domain.NonNegative("stock")},
				Note:          input.Reason,
			}}, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   adjustment.ID,
			AggregateType: domain.AggregateStock,
			EventType:     domain.EventStockAdjusted,
			Payload: map[string]any{
				"adjustment_id": adjustment.ID,
				"product_id":    product.ID,
				"location_id":   input.LocationID,
				"kind":          string(input.Kind),
				"quantity":      input.Quantity.String(),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditStockAdjust,
			EntityType: domain.AggregateStock,
			EntityID:   adjustment.ID,
			Details:    domain.MarshalState(adjustment),
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.StockAdjustments.WithLabelValues(string(input.Kind)).Inc()
	}

	return adjustment, nil
}

// TransferRequestInput represents input for requesting a stock transfer.
type TransferRequestInput struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       decimal.Decimal
	Note           string
	ActorID        string
}

// RequestTransfer records a pending transfer. No stock moves until a manager
// approves it.
func (uc *InventoryUseCase) RequestTransfer(ctx context.Context, input TransferRequestInput) (*domain.StockTransfer, error) {
	transfer := &domain.StockTransfer{
		ID:             uc.idGen.Generate(),
		ProductID:      input.ProductID,
		FromLocationID: input.FromLocationID,
		ToLocationID:   input.ToLocationID,
		Quantity:       input.Quantity,
		Status:         domain.TransferPending,
		RequestedBy:    input.ActorID,
		Note:           input.Note,
		CreatedAt:      time.Now().UTC(),
	}
	if err := transfer.Validate(); err != nil {
		return nil, err
	}
	if _, err := uc.productRepo.GetByID(ctx, input.ProductID); err != nil {
		return nil, err
	}
	if _, err := uc.productRepo.GetLocation(ctx, input.FromLocationID); err != nil {
		return nil, err
	}
	if _, err := uc.productRepo.GetLocation(ctx, input.ToLocationID); err != nil {
		return nil, err
	}

	if err := uc.transferRepo.Create(ctx, transfer); err != nil {
		return nil, err
	}
	return transfer, nil
}

// DecideTransferInput represents input for approving or rejecting a transfer.
type DecideTransferInput struct {
	TransferID string
	ActorID    string
	ActorName  string
	IPAddress  string
}

// ApproveTransfer moves the stock. Source and destination rows are locked
// together in the global holder order, the source is re-checked under lock,
// and both sides plus the status flip commit atomically.
func (uc *InventoryUseCase) ApproveTransfer(ctx context.Context, input DecideTransferInput) (*domain.StockTransfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, input.TransferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status != domain.TransferPending {
		return nil, domain.PreconditionError("transfer %s is already %s", transfer.ID, transfer.Status)
	}

	from, err := uc.stockRepo.Ensure(ctx, transfer.ProductID, transfer.FromLocationID)
	if err != nil {
		return nil, err
	}
	to, err := uc.stockRepo.Ensure(ctx, transfer.ProductID, transfer.ToLocationID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := MutationRequest{
		Refs:      []domain.HolderRef{from.HolderRef(), to.HolderRef()},
		Reference: Reference{Type: domain.AggregateStock, ID: transfer.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			current, err := uc.transferRepo.GetByIDForUpdate(ctx, tx, transfer.ID)
			if err != nil {
				return nil, err
			}
			if current.Status != domain.TransferPending {
				return nil, domain.PreconditionError("transfer %s is already %s", current.ID, current.Status)
			}
			if err := uc.transferRepo.Decide(ctx, tx, transfer.ID, domain.TransferApproved, input.ActorID, now); err != nil {
				return nil, err
			}
			return []Mutation{
				{
					Ref:           from.HolderRef(),
					Delta:         transfer.Quantity.Neg(),
					Kind:          domain.EntryTransferOut,
					Preconditions: []domain.Precondition{domain.NonNegative("stock")},
					Note:          transfer.Note,
				},
				{
					Ref:   to.HolderRef(),
					Delta: transfer.Quantity,
					Kind:  domain.EntryTransferIn,
					Note:  transfer.Note,
				},
			}, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   transfer.ID,
			AggregateType: domain.AggregateStock,
			EventType:     domain.EventStockTransferred,
			Payload: map[string]any{
				"transfer_id": transfer.ID,
				"product_id":  transfer.ProductID,
				"from":        transfer.FromLocationID,
				"to":          transfer.ToLocationID,
				"quantity":    transfer.Quantity.String(),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditTransferApprove,
			EntityType: domain.AggregateStock,
			EntityID:   transfer.ID,
			Details:    domain.MarshalState(transfer),
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		return nil, err
	}

	transfer.Status = domain.TransferApproved
	transfer.DecidedBy = input.ActorID
	transfer.DecidedAt = &now
	return transfer, nil
}

// RejectTransfer marks a pending transfer rejected. No stock moves.
func (uc *InventoryUseCase) RejectTransfer(ctx context.Context, input DecideTransferInput) (*domain.StockTransfer, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, input.TransferID)
	if err != nil {
		return nil, err
	}
	if transfer.Status != domain.TransferPending {
		return nil, domain.PreconditionError("transfer %s is already %s", transfer.ID, transfer.Status)
	}

	now := time.Now().UTC()
	if err := uc.transferRepo.Decide(ctx, nil, transfer.ID, domain.TransferRejected, input.ActorID, now); err != nil {
		return nil, err
	}
	transfer.Status = domain.TransferRejected
	transfer.DecidedBy = input.ActorID
	transfer.DecidedAt = &now
	return transfer, nil
}

// ReceivePurchaseInput represents input for receiving goods from a supplier.
type ReceivePurchaseInput struct {
	SupplierID string
	LocationID string
	Lines      []PurchaseLineInput
	ActorID    string
	ActorName  string
	IPAddress  string
}

// PurchaseLineInput is one received line.
type PurchaseLineInput struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// ReceivePurchase records a goods receipt and increases stock for every
// line in one transaction.
func (uc *InventoryUseCase) ReceivePurchase(ctx context.Context, input ReceivePurchaseInput) (*domain.Purchase, error) {
	supplier, err := uc.supplierRepo.GetByID(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}
	if !supplier.IsActive {
		return nil, domain.PreconditionError("supplier %s is deactivated", supplier.Name)
	}
	if _, err := uc.productRepo.GetLocation(ctx, input.LocationID); err != nil {
		return nil, err
	}

	purchase := &domain.Purchase{
		ID:         uc.idGen.Generate(),
		SupplierID: supplier.ID,
		LocationID: input.LocationID,
		ReceivedBy: input.ActorID,
		CreatedAt:  time.Now().UTC(),
	}

	stocks := make(map[string]*domain.StockLevel, len(input.Lines))
	refs := make([]domain.HolderRef, 0, len(input.Lines))
	for _, line := range input.Lines {
		if _, err := uc.productRepo.GetByID(ctx, line.ProductID); err != nil {
			return nil, err
		}
		stock, err := uc.stockRepo.Ensure(ctx, line.ProductID, input.LocationID)
		if err != nil {
			return nil, err
		}
		stocks[line.ProductID] = stock
		refs = append(refs, stock.HolderRef())

		purchase.Lines = append(purchase.Lines, domain.PurchaseLine{
			ID:         uc.idGen.Generate(),
			PurchaseID: purchase.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitCost:   line.UnitCost,
		})
	}
	if err := purchase.ComputeTotal(); err != nil {
		return nil, err
	}

	req := MutationRequest{
		Refs:      refs,
		Reference: Reference{Type: domain.AggregatePurchase, ID: purchase.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			if err := uc.purchaseRepo.Create(ctx, tx, purchase); err != nil {
				return nil, err
			}
			muts := make([]Mutation, 0, len(purchase.Lines))
			for _, line := range purchase.Lines {
				muts = append(muts, Mutation{
					Ref:   stocks[line.ProductID].HolderRef(),
					Delta: line.Quantity,
					Kind:  domain.EntryPurchase,
				})
			}
			return muts, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   purchase.ID,
			AggregateType: domain.AggregatePurchase,
			EventType:     domain.EventPurchaseReceived,
			Payload: map[string]any{
				"purchase_id": purchase.ID,
				"supplier_id": supplier.ID,
				"location_id": input.LocationID,
				"total":       purchase.Total.String(),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditPurchaseReceive,
			EntityType: domain.AggregatePurchase,
			EntityID:   purchase.ID,
			Details:    domain.MarshalState(purchase),
			IPAddress:  input.IPAddress,
			CreatedAt:  time.Now().UTC(),
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		return nil, err
	}
	return purchase, nil
}

// GetStock returns the stock level of one product at one location. A missing
// row reads as zero.
func (uc *InventoryUseCase) GetStock(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	return uc.stockRepo.Ensure(ctx, productID, locationID)
}

// ListStock lists stock levels at a location.
func (uc *InventoryUseCase) ListStock(ctx context.Context, locationID string, limit, offset int) ([]*domain.StockLevel, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.stockRepo.ListByLocation(ctx, locationID, limit, offset)
}

// LowStock lists stock rows at or below their product's minimum level.
func (uc *InventoryUseCase) LowStock(ctx context.Context, locationID string) ([]*domain.StockLevel, error) {
	return uc.stockRepo.LowStock(ctx, locationID)
}

// ListAdjustments lists adjustments, optionally filtered by product.
func (uc *InventoryUseCase) ListAdjustments(ctx context.Context, productID string, limit, offset int) ([]*domain.StockAdjustment, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.adjustmentRepo.List(ctx, productID, limit, offset)
}

// ListTransfers lists transfers by status.
func (uc *InventoryUseCase) ListTransfers(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.StockTransfer, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.transferRepo.List(ctx, status, limit, offset)
}

// GetTransfer returns one transfer by ID.
func (uc *InventoryUseCase) GetTransfer(ctx context.Context, id string) (*domain.StockTransfer, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// GetPurchase returns one purchase by ID.
func (uc *InventoryUseCase) GetPurchase(ctx context.Context, id string) (*domain.Purchase, error) {
	return uc.purchaseRepo.GetByID(ctx, id)
}

// ListPurchases lists purchases, optionally filtered by supplier.
func (uc *InventoryUseCase) ListPurchases(ctx context.Context, supplierID string, limit, offset int) ([]*domain.Purchase, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.purchaseRepo.List(ctx, supplierID, limit, offset)
}
