package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
)

// SaleUseCase handles checkout and sale lifecycle.
type SaleUseCase struct {
	engine       *MutationEngine
	productRepo  ProductRepository
	stockRepo    StockRepository
	saleRepo     SaleRepository
	returnRepo   ReturnRepository
	registerRepo RegisterRepository
	giftCardRepo GiftCardRepository
	customerRepo CustomerRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics

	// loyaltyEarnRate is points earned per currency unit of net amount;
	// zero disables earning.
	loyaltyEarnRate decimal.Decimal
}

// NewSaleUseCase creates a new SaleUseCase.
func NewSaleUseCase(
	engine *MutationEngine,
	productRepo ProductRepository,
	stockRepo StockRepository,
	saleRepo SaleRepository,
	returnRepo ReturnRepository,
	registerRepo RegisterRepository,
	giftCardRepo GiftCardRepository,
	customerRepo CustomerRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	loyaltyEarnRate decimal.Decimal,
) *SaleUseCase {
	return &SaleUseCase{
		engine:          engine,
		productRepo:     productRepo,
		stockRepo:       stockRepo,
		saleRepo:        saleRepo,
		returnRepo:      returnRepo,
		registerRepo:    registerRepo,
		giftCardRepo:    giftCardRepo,
		customerRepo:    customerRepo,
		idGen:           idGen,
		metrics:         metrics,
		loyaltyEarnRate: loyaltyEarnRate,
	}
}

// CheckoutLine is one cart line in a checkout request.
type CheckoutLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CheckoutInput represents input for a checkout.
type CheckoutInput struct {
	CustomerID    string
	LocationID    string
	Lines         []CheckoutLine
	Discount      decimal.Decimal
	PaymentMethod domain.PaymentMethod
	GiftCardCode  string
	ActorID       string
	ActorName     string
	IPAddress     string
}

// Checkout completes a sale in one atomic mutation. Stock is deducted per
// line, the open register takes the cash for cash payments, a gift card is
// redeemed for gift-card payments, and loyalty points accrue.
func (uc *SaleUseCase) Checkout(ctx context.Context, input CheckoutInput) (*domain.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptySale
	}
	if _, err := uc.productRepo.GetLocation(ctx, input.LocationID); err != nil {
		return nil, err
	}

	sale := &domain.Sale{
		ID:            uc.idGen.Generate(),
		CustomerID:    input.CustomerID,
		LocationID:    input.LocationID,
		Discount:      input.Discount,
		PaymentMethod: input.PaymentMethod,
		GiftCardCode:  input.GiftCardCode,
		Status:        domain.SaleCompleted,
		SoldBy:        input.ActorID,
		CreatedAt:     time.Now().UTC(),
	}

	// Resolve products and their stock rows before opening the transaction;
	// balances are re-read under lock inside the engine.
	stocks := make(map[string]*domain.StockLevel, len(input.Lines))
	refs := make([]domain.HolderRef, 0, len(input.Lines)+2)

	for _, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidQuantity
		}

		product, err := uc.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, domain.PreconditionError("product %s is not active", product.SKU)
		}

		stock, err := uc.stockRepo.Ensure(ctx, product.ID, input.LocationID)
		if err != nil {
			return nil, err
		}
		stocks[product.ID] = stock
		refs = append(refs, stock.HolderRef())

		sale.Lines = append(sale.Lines, domain.SaleLine{
			ID:        uc.idGen.Generate(),
			SaleID:    sale.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.UnitPrice,
		})
	}

	if err := sale.ComputeTotals(); err != nil {
		return nil, err
	}

	var register *domain.CashRegister
	if input.PaymentMethod == domain.PayCash {
		open, err := uc.registerRepo.GetOpen(ctx)
		if err != nil {
			return nil, domain.PreconditionError("no open cash register for a cash sale")
		}
		register = open
		sale.RegisterID = register.ID
		refs = append(refs, register.HolderRef())
	}

	var card *domain.GiftCard
	if input.PaymentMethod == domain.PayGiftCard {
		found, err := uc.giftCardRepo.GetByCode(ctx, input.GiftCardCode)
		if err != nil {
			return nil, err
		}
		card = found
		refs = append(refs, card.HolderRef())
	}

	var customer *domain.Customer
	earned := decimal.Zero
	if input.CustomerID != "" {
		found, err := uc.customerRepo.GetByID(ctx, input.CustomerID)
		if err != nil {
			return nil, err
		}
		customer = found
		if uc.loyaltyEarnRate.IsPositive() {
			earned = sale.NetAmount.Mul(uc.loyaltyEarnRate).Floor()
			if earned.IsPositive() {
				refs = append(refs, customer.HolderRef())
			}
		}
	}

	now := time.Now().UTC()

	req := MutationRequest{
		Refs:      refs,
		Reference: Reference{Type: domain.AggregateSale, ID: sale.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			if err := uc.saleRepo.Create(ctx, tx, sale); err != nil {
				return nil, err
			}

			var muts []Mutation
			for _, line := range sale.Lines {
				stock := stocks[line.ProductID]
				muts = append(muts, Mutation{
					Ref:           stock.HolderRef(),
					Delta:         line.Quantity.Neg(),
					Kind:          domain.EntrySale,
					Preconditions: []domain.Precondition{domain.NonNegative("stock")},
				})
			}

			if register != nil {
				if err := uc.registerRepo.AddToTotal(ctx, tx, register.ID, "cash_sales_total", sale.NetAmount); err != nil {
					return nil, err
				}
				muts = append(muts, Mutation{
					Ref:           register.HolderRef(),
					Delta:         sale.NetAmount,
					Kind:          domain.EntryCashSale,
					Preconditions: []domain.Precondition{domain.StatusIs(string(domain.RegisterOpen))},
				})
			}

			if card != nil {
				if err := card.CanRedeem(now); err != nil {
					return nil, err
				}
				muts = append(muts, Mutation{
					Ref:           card.HolderRef(),
					Delta:         sale.NetAmount.Neg(),
					Kind:          domain.EntryGiftCardRedeem,
					Preconditions: []domain.Precondition{domain.StatusIs(string(domain.GiftCardActive)), domain.NonNegative("gift card balance")},
				})

				// Depleted transition commits atomically with the redeem.
				remaining := locked[card.HolderRef()].Amount.Sub(sale.NetAmount)
				if remaining.IsZero() {
					if err := uc.giftCardRepo.UpdateStatus(ctx, tx, card.ID, domain.GiftCardDepleted, now); err != nil {
						return nil, err
					}
				}
			}

			if customer != nil && earned.IsPositive() {
				muts = append(muts, Mutation{
					Ref:   customer.HolderRef(),
					Delta: earned,
					Kind:  domain.EntryPointsEarn,
				})
			}

			return muts, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   sale.ID,
			AggregateType: domain.AggregateSale,
			EventType:     domain.EventSaleCompleted,
			Payload: map[string]any{
				"sale_id":        sale.ID,
				"location_id":    sale.LocationID,
				"net_amount":     sale.NetAmount.String(),
				"payment_method": string(sale.PaymentMethod),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditSaleCheckout,
			EntityType: domain.AggregateSale,
			EntityID:   sale.ID,
			Details:    domain.MarshalState(sale),
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		if uc.metrics != nil {
			uc.metrics.SaleFailures.WithLabelValues(metrics.ErrorLabel(err)).Inc()
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SalesCompleted.Inc()
		amount, _ := sale.NetAmount.Float64()
		uc.metrics.SaleAmount.Observe(amount)
	}

	return sale, nil
}

// VoidInput represents input for voiding a sale.
type VoidInput struct {
	SaleID    string
	Reason    string
	ActorID   string
	ActorName string
	IPAddress string
}

// Void cancels a completed sale with no returns: stock is restored and, for
// cash sales, the refund leaves the open register drawer.
func (uc *SaleUseCase) Void(ctx context.Context, input VoidInput) (*domain.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != domain.SaleCompleted {
		return nil, domain.PreconditionError("sale %s is %s, not completed", sale.ID, sale.Status)
	}

	refs := make([]domain.HolderRef, 0, len(sale.Lines)+1)
	stocks := make(map[string]*domain.StockLevel, len(sale.Lines))
	for _, line := range sale.Lines {
		stock, err := uc.stockRepo.Ensure(ctx, line.ProductID, sale.LocationID)
		if err != nil {
			return nil, err
		}
		stocks[line.ProductID] = stock
		refs = append(refs, stock.HolderRef())
	}

	var register *domain.CashRegister
	if sale.PaymentMethod == domain.PayCash {
		open, err := uc.registerRepo.GetOpen(ctx)
		if err != nil {
			return nil, domain.PreconditionError("no open cash register to refund a cash sale")
		}
		register = open
		refs = append(refs, register.HolderRef())
	}

	req := MutationRequest{
		Refs:      refs,
		Reference: Reference{Type: domain.AggregateSale, ID: sale.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			status, err := uc.saleRepo.GetStatusForUpdate(ctx, tx, sale.ID)
			if err != nil {
				return nil, err
			}
			if status != domain.SaleCompleted {
				return nil, domain.PreconditionError("sale %s is %s, not completed", sale.ID, status)
			}

			hasReturns, err := uc.returnRepo.HasReturns(ctx, tx, sale.ID)
			if err != nil {
				return nil, err
			}
			if hasReturns {
				return nil, domain.PreconditionError("sale %s has returns and cannot be voided", sale.ID)
			}

			if err := uc.saleRepo.UpdateStatus(ctx, tx, sale.ID, domain.SaleVoided); err != nil {
				return nil, err
			}

			var muts []Mutation
			for _, line := range sale.Lines {
				muts = append(muts, Mutation{
					Ref:   stocks[line.ProductID].HolderRef(),
					Delta: line.Quantity,
					Kind:  domain.EntrySaleVoid,
					Note:  input.Reason,
				})
			}

			if register != nil {
				if err := uc.registerRepo.AddToTotal(ctx, tx, register.ID, "cash_sales_total", sale.NetAmount.Neg()); err != nil {
					return nil, err
				}
				muts = append(muts, Mutation{
					Ref:   register.HolderRef(),
					Delta: sale.NetAmount.Neg(),
					Kind:  domain.EntryCashRefund,
					Note:  input.Reason,
					Preconditions: []domain.Precondition{
						domain.StatusIs(string(domain.RegisterOpen)),
						domain.NonNegative("drawer cash"),
					},
				})
			}

			return muts, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   sale.ID,
			AggregateType: domain.AggregateSale,
			EventType:     domain.EventSaleVoided,
			Payload:       map[string]any{"sale_id": sale.ID, "reason": input.Reason},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditSaleVoid,
			EntityType: domain.AggregateSale,
			EntityID:   sale.ID,
			Details:    domain.JSON{"reason": input.Reason},
			IPAddress:  input.IPAddress,
			CreatedAt:  time.Now().UTC(),
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		return nil, err
	}

	sale.Status = domain.SaleVoided
	return sale, nil
}

// GetSale retrieves a sale by ID.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return uc.saleRepo.GetByID(ctx, id)
}

// ListSales lists sales with filters and pagination.
func (uc *SaleUseCase) ListSales(ctx context.Context, filter SaleFilter) ([]*domain.Sale, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.saleRepo.List(ctx, filter)
}
