package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

// GiftCardUseCase manages stored-value cards. Every balance change goes
// through the mutation engine; status transitions that accompany a balance
// change happen in the same transaction.
type GiftCardUseCase struct {
	engine       *MutationEngine
	giftCardRepo GiftCardRepository
	idGen        IDGenerator
	auditRepo    AuditRepository
	logger       zerolog.Logger
}

// NewGiftCardUseCase creates a new GiftCardUseCase.
func NewGiftCardUseCase(
	engine *MutationEngine,
	giftCardRepo GiftCardRepository,
	idGen IDGenerator,
	auditRepo AuditRepository,
	logger zerolog.Logger,
) *GiftCardUseCase {
	return &GiftCardUseCase{
		engine:       engine,
		giftCardRepo: giftCardRepo,
		idGen:        idGen,
		auditRepo:    auditRepo,
		logger:       logger,
	}
}

// IssueInput represents input for issuing a new gift card.
type IssueInput struct {
	Code           string
	InitialBalance decimal.Decimal
	ExpiresAt      *time.Time
	IssuedTo       string
	ActorID        string
	ActorName      string
	IPAddress      string
}

// Issue creates a gift card and loads its initial balance. The card row is
// created with a zero balance, then the initial load runs through the engine
// so the first ledger entry already carries the opening balance_after.
func (uc *GiftCardUseCase) Issue(ctx context.Context, input IssueInput) (*domain.GiftCard, error) {
	if input.InitialBalance.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		code = generateGiftCardCode(uc.idGen)
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now()) {
		return nil, domain.PreconditionError("expiry date is in the past")
	}

	now := time.Now().UTC()
	card := &domain.GiftCard{
		ID:        uc.idGen.Generate(),
		Code:      code,
		Balance:   decimal.Zero,
		Status:    domain.GiftCardActive,
		ExpiresAt: input.ExpiresAt,
		IssuedTo:  input.IssuedTo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.giftCardRepo.Create(ctx, nil, card); err != nil {
		return nil, err
	}

	req := MutationRequest{
		Refs: []domain.HolderRef{card.HolderRef()},
		Mutations: []Mutation{{
			Ref:   card.HolderRef(),
			Delta: input.InitialBalance,
			Kind:  domain.EntryGiftCardIssue,
		}},
		Reference: Reference{Type: domain.AggregateGiftCard, ID: card.ID},
		ActorID:   input.ActorID,
		Events: []*domain.OutboxEvent{{
			AggregateID:   card.ID,
			AggregateType: domain.AggregateGiftCard,
			EventType:     domain.EventGiftCardIssued,
			Payload: map[string]any{
				"gift_card_id": card.ID,
				"code":         card.Code,
				"balance":      input.InitialBalance.String(),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditGiftCardIssue,
			EntityType: domain.AggregateGiftCard,
			EntityID:   card.ID,
			Details:    domain.MarshalState(card),
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}
	if _, err := uc.engine.Execute(ctx, req); err != nil {
		return nil, err
	}

	card.Balance = input.InitialBalance
	return card, nil
}

// LoadInput represents input for loading value onto a card.
type LoadInput struct {
	Code      string
	Amount    decimal.Decimal
	ActorID   string
	ActorName string
	IPAddress string
}

// Load adds value to an existing card. Loading a depleted card reactivates
// it in the same transaction.
func (uc *GiftCardUseCase) Load(ctx context.Context, input LoadInput) (*domain.GiftCard, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	card, err := uc.giftCardRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := uc.settleExpiry(ctx, card, now); err != nil {
		return nil, err
	}
	if err := card.CanLoad(now); err != nil {
		return nil, err
	}

	req := MutationRequest{
		Refs:      []domain.HolderRef{card.HolderRef()},
		Reference: Reference{Type: domain.AggregateGiftCard, ID: card.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			if locked[card.HolderRef()].Status == string(domain.GiftCardDepleted) {
				if err := uc.giftCardRepo.UpdateStatus(ctx, tx, card.ID, domain.GiftCardActive, now); err != nil {
					return nil, err
				}
			}
			return []Mutation{{
				Ref:   card.HolderRef(),
				Delta: input.Amount,
				Kind:  domain.EntryGiftCardLoad,
				Preconditions: []domain.Precondition{
					domain.StatusNot(string(domain.GiftCardDisabled)),
					domain.StatusNot(string(domain.GiftCardExpired)),
				},
			}}, nil
		},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditGiftCardLoad,
			EntityType: domain.AggregateGiftCard,
			EntityID:   card.ID,
			Details:    domain.JSON{"amount": input.Amount.String()},
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}
	result, err := uc.engine.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	card.Balance = result.Balances[card.HolderRef()]
	card.Status = domain.GiftCardActive
	return card, nil
}

// RedeemInput represents input for redeeming value from a card.
type RedeemInput struct {
	Code      string
	Amount    decimal.Decimal
	Reference Reference
	ActorID   string
	ActorName string
	IPAddress string
}

// Redeem subtracts value from a card. Balance can never go below zero;
// reaching exactly zero flips the card to depleted in the same transaction.
func (uc *GiftCardUseCase) Redeem(ctx context.Context, input RedeemInput) (*domain.GiftCard, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	card, err := uc.giftCardRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := uc.settleExpiry(ctx, card, now); err != nil {
		return nil, err
	}
	if err := card.CanRedeem(now); err != nil {
		return nil, err
	}

	ref := input.Reference
	if ref.Type == "" {
		ref = Reference{Type: domain.AggregateGiftCard, ID: card.ID}
	}

	req := MutationRequest{
		Refs:      []domain.HolderRef{card.HolderRef()},
		Reference: ref,
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			remaining := locked[card.HolderRef()].Amount.Sub(input.Amount)
			if remaining.IsZero() {
				if err := uc.giftCardRepo.UpdateStatus(ctx, tx, card.ID, domain.GiftCardDepleted, now); err != nil {
					return nil, err
				}
			}
			return []Mutation{{
				Ref:   card.HolderRef(),
				Delta: input.Amount.Neg(),
				Kind:  domain.EntryGiftCardRedeem,
				Preconditions: []domain.Precondition{
					domain.StatusIs(string(domain.GiftCardActive)),
					domain.NonNegative("gift card balance"),
				},
			}}, nil
		},
		Events: []*domain.OutboxEvent{{
			AggregateID:   card.ID,
			AggregateType: domain.AggregateGiftCard,
			EventType:     domain.EventGiftCardRedeemed,
			Payload: map[string]any{
				"gift_card_id": card.ID,
				"code":         card.Code,
				"amount":       input.Amount.String(),
			},
		}},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     domain.AuditGiftCardRedeem,
			EntityType: domain.AggregateGiftCard,
			EntityID:   card.ID,
			Details:    domain.JSON{"amount": input.Amount.String()},
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}
	result, err := uc.engine.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	card.Balance = result.Balances[card.HolderRef()]
	card.Status = domain.StatusAfterRedeem(card.Balance)
	return card, nil
}

// Disable blocks a card from any further redemption or loading.
func (uc *GiftCardUseCase) Disable(ctx context.Context, code, actorID, actorName, ipAddress string) error {
	card, err := uc.giftCardRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if card.Status == domain.GiftCardDisabled {
		return nil
	}
	if err := uc.giftCardRepo.UpdateStatus(ctx, nil, card.ID, domain.GiftCardDisabled, time.Now().UTC()); err != nil {
		return err
	}

	if uc.auditRepo != nil {
		log := &domain.AuditLog{
			ActorID:    actorID,
			ActorName:  actorName,
			Action:     domain.AuditGiftCardDisable,
			EntityType: domain.AggregateGiftCard,
			EntityID:   card.ID,
			IPAddress:  ipAddress,
			CreatedAt:  time.Now().UTC(),
		}
		if err := uc.auditRepo.Create(ctx, log); err != nil {
			uc.logger.Error().Err(err).Str("gift_card", card.ID).Msg("audit write failed")
		}
	}
	return nil
}

// Get returns a card by code, settling a stale expiry first so callers never
// see an active card that is already past its expiry date.
func (uc *GiftCardUseCase) Get(ctx context.Context, code string) (*domain.GiftCard, error) {
	card, err := uc.giftCardRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := uc.settleExpiry(ctx, card, time.Now().UTC()); err != nil {
		return nil, err
	}
	return card, nil
}

// List returns a page of cards.
func (uc *GiftCardUseCase) List(ctx context.Context, limit, offset int) ([]*domain.GiftCard, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.giftCardRepo.List(ctx, limit, offset)
}

// settleExpiry persists the expired status the first time a card is touched
// past its expiry date. Expiry is detected lazily; no background sweep.
func (uc *GiftCardUseCase) settleExpiry(ctx context.Context, card *domain.GiftCard, now time.Time) error {
	if card.Status == domain.GiftCardExpired || !card.IsExpired(now) {
		return nil
	}
	if card.Status == domain.GiftCardDisabled {
		return nil
	}
	if err := uc.giftCardRepo.UpdateStatus(ctx, nil, card.ID, domain.GiftCardExpired, now); err != nil {
		return err
	}
	card.Status = domain.GiftCardExpired
	return nil
}

// generateGiftCardCode produces a human-readable card code from a fresh ID.
func generateGiftCardCode(idGen IDGenerator) string {
	id := idGen.Generate()
	if len(id) > 12 {
		id = id[len(id)-12:]
	}
	return "GC-" + strings.ToUpper(id)
}
