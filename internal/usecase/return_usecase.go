package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
)

// ReturnUseCase handles returns against completed sales.
type ReturnUseCase struct {
	engine       *MutationEngine
	saleRepo     SaleRepository
	returnRepo   ReturnRepository
	stockRepo    StockRepository
	registerRepo RegisterRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

// NewReturnUseCase creates a new ReturnUseCase.
func NewReturnUseCase(
	engine *MutationEngine,
	saleRepo SaleRepository,
	returnRepo ReturnRepository,
	stockRepo StockRepository,
	registerRepo RegisterRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *ReturnUseCase {
	return &ReturnUseCase{
		engine:       engine,
		saleRepo:     saleRepo,
		returnRepo:   returnRepo,
		stockRepo:    stockRepo,
		registerRepo: registerRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// ReturnLineInput is one requested return line.
type ReturnLineInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateReturnInput represents input for processing a return.
type CreateReturnInput struct {
	SaleID       string
	Lines        []ReturnLineInput
	RefundMethod domain.RefundMethod
	Reason       string
	ActorID      string
	ActorName    string
	IPAddress    string
}

// CreateReturn processes a return. Per line, the quantity still returnable
// is recomputed from the return history inside the transaction, after the
// stock locks are held, so concurrent partial returns for the same sale
// serialize and can never over-return.
func (uc *ReturnUseCase) CreateReturn(ctx context.Context, input CreateReturnInput) (*domain.Return, error) {
	if len(input.Lines) == 0 {
		return nil, domain.PreconditionError("return must contain at least one line")
	}

	sale, err := uc.saleRepo.GetByID(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != domain.SaleCompleted {
		return nil, domain.PreconditionError("sale %s is %s and cannot be returned against", sale.ID, sale.Status)
	}

	unitPrices := make(map[string]decimal.Decimal, len(sale.Lines))
	for _, line := range sale.Lines {
		unitPrices[line.ProductID] = line.UnitPrice
	}

	ret := &domain.Return{
		ID:           uc.idGen.Generate(),
		SaleID:       sale.ID,
		RefundMethod: input.RefundMethod,
		Reason:       input.Reason,
		ProcessedBy:  input.ActorID,
		CreatedAt:    time.Now().UTC(),
	}

	refund := decimal.Zero
	stocks := make(map[string]*domain.StockLevel, len(input.Lines))
	refs := make([]domain.HolderRef, 0, len(input.Lines)+1)

	for _, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidQuantity
		}
		price, sold := unitPrices[line.ProductID]
		if !sold {
			return nil, domain.PreconditionError("product %s is not on sale %s", line.ProductID, sale.ID)
		}

		stock, err := uc.stockRepo.Ensure(ctx, line.ProductID, sale.LocationID)
		if err != nil {
			return nil, err
		}
		stocks[line.ProductID] = stock
		refs = append(refs, stock.HolderRef())

		ret.Lines = append(ret.Lines, domain.ReturnLine{
			ID:        uc.idGen.Generate(),
			ReturnID:  ret.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
		refund = refund.Add(price.Mul(line.Quantity))
	}
	ret.RefundAmount = domain.RoundCurrency(refund)

	var register *domain.CashRegister
	if input.RefundMethod == domain.RefundCash {
		open, err := uc.registerRepo.GetOpen(ctx)
		if err != nil {
			return nil, domain.PreconditionError("no open cash register for a cash refund")
		}
		register = open
		refs = append(refs, register.HolderRef())
	}

	req := MutationRequest{
		Refs:      refs,
		Reference: Reference{Type: domain.AggregateReturn, ID: ret.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			// The status check above ran before the stock locks were held; a
			// void may have committed while this transaction waited. Re-read
			// under lock so a return can never land on a voided sale.
			status, err := uc.saleRepo.GetStatusForUpdate(ctx, tx, sale.ID)
			if err != nil {
				return nil, err
			}
			if status != domain.SaleCompleted {
				return nil, domain.PreconditionError("sale %s is %s and cannot be returned against", sale.ID, status)
			}

			sold, err := uc.saleRepo.SoldQuantities(ctx, tx, sale.ID)
			if err != nil {
				return nil, err
			}
			returned, err := uc.returnRepo.ReturnedQuantities(ctx, tx, sale.ID)
			if err != nil {
				return nil, err
			}

			for _, line := range ret.Lines {
				max := domain.MaxReturnable(sold[line.ProductID], returned[line.ProductID])
				if line.Quantity.GreaterThan(max) {
					return nil, domain.PreconditionError(
						"cannot return %s of product %s: only %s returnable",
						line.Quantity.String(), line.ProductID, max.String())
				}
			}

			if err := uc.returnRepo.Create(ctx, tx, ret); err != nil {
				return nil, err
			}

			var muts []Mutation
			for _, line := range ret.Lines {
				muts = append(muts, Mutation{
					Ref:   stocks[line.ProductID].HolderRef(),
					Delta: line.Quantity,
					Kind:  domain.EntrySaleReturn,
					Note:  input.Reason,
				})
			}

			if register != nil {
				if err := uc.registerRepo.AddToTotal(ctx, tx, register.ID, "total_cash_out", ret.RefundAmount); err != nil {
					return nil, err
				}
				muts = append(muts, Mutation{
					Ref:   register.HolderRef(),
					Delta: ret.RefundAmount.Neg(),
					Kind:  domain.EntryCashRefund,
					Preconditions: []domain.Precondition{
						domain.StatusIs(string(domain.RegisterOpen)),
						domain.NonNegative("drawer cash"),
					},
				})
			}

			return muts, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   ret.ID,
			AggregateType: domain.AggregateReturn,
			EventType:     domain.EventReturnProcessed,
			Payload: map[string]any{
				"return_id":     ret.ID,
				"sale_id":       sale.ID,
				"refund_amount": ret.RefundAmount.String(),
				"refund_method": string(ret.RefundMethod),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditReturnCreate,
			EntityType: domain.AggregateReturn,
			EntityID:   ret.ID,
			Details:    domain.MarshalState(ret),
			IPAddress:  input.IPAddress,
			CreatedAt:  time.Now().UTC(),
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		if uc.metrics != nil {
			uc.metrics.ReturnFailures.WithLabelValues(metrics.ErrorLabel(err)).Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ReturnsProcessed.Inc()
	}

	return ret, nil
}

// GetReturn retrieves a return by ID.
func (uc *ReturnUseCase) GetReturn(ctx context.Context, id string) (*domain.Return, error) {
	return uc.returnRepo.GetByID(ctx, id)
}

// ListReturnsBySale lists all returns against a sale.
func (uc *ReturnUseCase) ListReturnsBySale(ctx context.Context, saleID string) ([]*domain.Return, error) {
	return uc.returnRepo.ListBySale(ctx, saleID)
}
