package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
)

// RegisterUseCase manages cash-drawer sessions. At most one register may be
// open at a time; the open check here is raced-proofed by a partial unique
// index on status='open', so a concurrent double-open loses at commit.
type RegisterUseCase struct {
	engine       *MutationEngine
	registerRepo RegisterRepository
	txManager    TransactionManager
	idGen        IDGenerator
	auditRepo    AuditRepository
	outboxRepo   OutboxRepository
	metrics      *metrics.Metrics
}

// NewRegisterUseCase creates a new RegisterUseCase.
func NewRegisterUseCase(
	engine *MutationEngine,
	registerRepo RegisterRepository,
	txManager TransactionManager,
	idGen IDGenerator,
	auditRepo AuditRepository,
	outboxRepo OutboxRepository,
	metrics *metrics.Metrics,
) *RegisterUseCase {
	return &RegisterUseCase{
		engine:       engine,
		registerRepo: registerRepo,
		txManager:    txManager,
		idGen:        idGen,
		auditRepo:    auditRepo,
		outboxRepo:   outboxRepo,
		metrics:      metrics,
	}
}

// OpenInput represents input for opening a register session.
type OpenInput struct {
	LocationID     string
	OpeningBalance decimal.Decimal
	ActorID        string
	ActorName      string
	IPAddress      string
}

// Open starts a new drawer session with a counted opening float. The session
// row and its opened event are written in one transaction; no ledger entry is
// made at open, the opening float is the replay base for the drawer's history.
func (uc *RegisterUseCase) Open(ctx context.Context, input OpenInput) (*domain.CashRegister, error) {
	if input.OpeningBalance.IsNegative() {
		return nil, domain.PreconditionError("opening balance cannot be negative")
	}
	if existing, err := uc.registerRepo.GetOpen(ctx); err == nil && existing != nil {
		return nil, domain.PreconditionError("register %s is already open", existing.ID)
	}

	now := time.Now().UTC()
	register := &domain.CashRegister{
		ID:             uc.idGen.Generate(),
		LocationID:     input.LocationID,
		Status:         domain.RegisterOpen,
		OpeningBalance: input.OpeningBalance,
		CashOnHand:     input.OpeningBalance,
		OpenedBy:       input.ActorID,
		OpenedAt:       now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := uc.registerRepo.Create(ctx, tx, register); err != nil {
		return nil, err
	}
	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   register.ID,
			AggregateType: domain.AggregateRegister,
			EventType:     domain.EventRegisterOpened,
			Payload: map[string]any{
				"register_id":     register.ID,
				"location_id":     register.LocationID,
				"opening_balance": register.OpeningBalance.String(),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.writeAudit(ctx, &domain.AuditLog{
		ActorID:    input.ActorID,
		ActorName:  input.ActorName,
		Action:     domain.AuditRegisterOpen,
		EntityType: domain.AggregateRegister,
		EntityID:   register.ID,
		Details:    domain.MarshalState(register),
		IPAddress:  input.IPAddress,
		CreatedAt:  now,
	})

	if uc.metrics != nil {
		uc.metrics.RegistersOpened.Inc()
	}

	return register, nil
}

// MovementInput represents input for a manual cash movement.
type MovementInput struct {
	RegisterID string
	Amount     decimal.Decimal
	Reason     string
	ActorID    string
	ActorName  string
	IPAddress  string
}

// CashIn records cash manually added to the drawer.
func (uc *RegisterUseCase) CashIn(ctx context.Context, input MovementInput) (*domain.CashMovement, error) {
	return uc.movement(ctx, input, domain.MovementCashIn)
}

// CashOut records cash manually removed from the drawer. The drawer can
// never go negative.
func (uc *RegisterUseCase) CashOut(ctx context.Context, input MovementInput) (*domain.CashMovement, error) {
	return uc.movement(ctx, input, domain.MovementCashOut)
}

func (uc *RegisterUseCase) movement(ctx context.Context, input MovementInput, kind domain.MovementKind) (*domain.CashMovement, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if input.Reason == "" {
		return nil, domain.PreconditionError("cash movement requires a reason")
	}

	register, err := uc.registerRepo.GetByID(ctx, input.RegisterID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	movement := &domain.CashMovement{
		ID:         uc.idGen.Generate(),
		RegisterID: register.ID,
		Kind:       kind,
		Amount:     input.Amount,
		Reason:     input.Reason,
		ActorID:    input.ActorID,
		CreatedAt:  now,
	}

	delta := input.Amount
	entryKind := domain.EntryCashIn
	column := "total_cash_in"
	action := domain.AuditCashIn
	preconditions := []domain.Precondition{domain.StatusIs(string(domain.RegisterOpen))}
	if kind == domain.MovementCashOut {
		delta = input.Amount.Neg()
		entryKind = domain.EntryCashOut
		column = "total_cash_out"
		action = domain.AuditCashOut
		preconditions = append(preconditions, domain.NonNegative("drawer cash"))
	}

	req := MutationRequest{
		Refs:      []domain.HolderRef{register.HolderRef()},
		Reference: Reference{Type: domain.AggregateRegister, ID: register.ID},
		ActorID:   input.ActorID,
		Prepare: func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error) {
			if err := uc.registerRepo.CreateMovement(ctx, tx, movement); err != nil {
				return nil, err
			}
			if err := uc.registerRepo.AddToTotal(ctx, tx, register.ID, column, input.Amount); err != nil {
				return nil, err
			}
			return []Mutation{{
				Ref:           register.HolderRef(),
				Delta:         delta,
				Kind:          entryKind,
				Preconditions: preconditions,
				Note:          input.Reason,
			}}, nil
		},
		Audit: &domain.AuditLog{
			ActorID:    input.ActorID,
			ActorName:  input.ActorName,
			Action:     action,
			EntityType: domain.AggregateRegister,
			EntityID:   register.ID,
			Details:    domain.MarshalState(movement),
			IPAddress:  input.IPAddress,
			CreatedAt:  now,
		},
	}

	if _, err := uc.engine.Execute(ctx, req); err != nil {
		return nil, err
	}
	return movement, nil
}

// CloseInput represents input for closing a register session.
type CloseInput struct {
	RegisterID     string
	ClosingBalance decimal.Decimal
	ActorID        string
	ActorName      string
	IPAddress      string
}

// Close ends a drawer session against a counted closing balance. Expected
// and difference are computed from the session's movement totals at currency
// precision; the session row is locked so a concurrent cash sale cannot
// slip in between the expectation and the close.
func (uc *RegisterUseCase) Close(ctx context.Context, input CloseInput) (*domain.CashRegister, error) {
	if input.ClosingBalance.IsNegative() {
		return nil, domain.PreconditionError("closing balance cannot be negative")
	}

	register, err := uc.registerRepo.GetByID(ctx, input.RegisterID)
	if err != nil {
		return nil, err
	}
	if register.Status != domain.RegisterOpen {
		return nil, domain.PreconditionError("register %s is already closed", register.ID)
	}

	now := time.Now().UTC()
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	register, err = uc.registerRepo.GetByIDForUpdate(ctx, tx, input.RegisterID)
	if err != nil {
		return nil, err
	}
	if register.Status != domain.RegisterOpen {
		return nil, domain.PreconditionError("register %s is already closed", register.ID)
	}

	register.Status = domain.RegisterClosed
	register.ClosingBalance = input.ClosingBalance
	register.ExpectedBalance = register.Expected()
	register.Difference = register.CloseDifference(input.ClosingBalance)
	register.ClosedBy = input.ActorID
	register.ClosedAt = &now

	if err := uc.registerRepo.Close(ctx, tx, register); err != nil {
		return nil, err
	}
	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   register.ID,
			AggregateType: domain.AggregateRegister,
			EventType:     domain.EventRegisterClosed,
			Payload: map[string]any{
				"register_id": register.ID,
				"expected":    register.ExpectedBalance.String(),
				"closing":     register.ClosingBalance.String(),
				"difference":  register.Difference.String(),
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.writeAudit(ctx, &domain.AuditLog{
		ActorID:    input.ActorID,
		ActorName:  input.ActorName,
		Action:     domain.AuditRegisterClose,
		EntityType: domain.AggregateRegister,
		EntityID:   register.ID,
		Details:    domain.MarshalState(register),
		IPAddress:  input.IPAddress,
		CreatedAt:  now,
	})

	if uc.metrics != nil {
		uc.metrics.RegistersClosed.Inc()
		diff, _ := register.Difference.Abs().Float64()
		uc.metrics.RegisterDifference.Observe(diff)
	}

	return register, nil
}

// Current returns the open register session, if any.
func (uc *RegisterUseCase) Current(ctx context.Context) (*domain.CashRegister, error) {
	return uc.registerRepo.GetOpen(ctx)
}

// Get returns one register session by ID.
func (uc *RegisterUseCase) Get(ctx context.Context, id string) (*domain.CashRegister, error) {
	return uc.registerRepo.GetByID(ctx, id)
}

// History lists past register sessions, most recent first.
func (uc *RegisterUseCase) History(ctx context.Context, limit, offset int) ([]*domain.CashRegister, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.registerRepo.History(ctx, limit, offset)
}

// ListMovements lists the manual cash movements of one session.
func (uc *RegisterUseCase) ListMovements(ctx context.Context, registerID string) ([]*domain.CashMovement, error) {
	return uc.registerRepo.ListMovements(ctx, registerID)
}

// writeAudit is best-effort: session bookkeeping must not fail a committed
// drawer operation.
func (uc *RegisterUseCase) writeAudit(ctx context.Context, log *domain.AuditLog) {
	if uc.auditRepo == nil {
		return
	}
	if err := uc.auditRepo.Create(ctx, log); err != nil {
		uc.engine.logger.Error().Err(err).
			Str("action", log.Action).
			Str("entity_id", log.EntityID).
			Msg("audit write failed after commit")
	}
}
