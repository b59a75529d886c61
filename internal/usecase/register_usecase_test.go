package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
	"github.com/tillbook/tillbook/internal/usecase/mocks"
)

type registerFixture struct {
	txManager *mocks.MockTransactionManager
	balances  *mocks.MockBalanceRepository
	ledger    *mocks.MockLedgerRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	registers *mocks.MockRegisterRepository

	uc *usecase.RegisterUseCase
}

func newRegisterFixture() *registerFixture {
	f := &registerFixture{
		txManager: mocks.NewMockTransactionManager(),
		balances:  mocks.NewMockBalanceRepository(),
		ledger:    mocks.NewMockLedgerRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
		registers: mocks.NewMockRegisterRepository(),
	}
	engine := usecase.NewMutationEngine(
		f.txManager, f.balances, f.ledger, f.outbox, f.audit,
		mocks.NewMockIDGenerator(), nil, usecase.AuditBestEffort, zerolog.Nop(),
	)
	f.uc = usecase.NewRegisterUseCase(engine, f.registers, f.txManager, mocks.NewMockIDGenerator(), f.audit, f.outbox, nil)
	return f
}

func (f *registerFixture) seedOpenSession(t *testing.T, opening decimal.Decimal) *domain.CashRegister {
	t.Helper()
	reg := &domain.CashRegister{
		ID:             "reg-1",
		LocationID:     "loc-1",
		Status:         domain.RegisterOpen,
		OpeningBalance: opening,
		CashOnHand:     opening,
		OpenedBy:       "user-1",
		OpenedAt:       time.Now().UTC(),
	}
	if err := f.registers.Create(context.Background(), nil, reg); err != nil {
		t.Fatalf("seed register: %v", err)
	}
	f.balances.SeedWithStatus(reg.HolderRef(), opening, string(domain.RegisterOpen))
	return reg
}

func TestOpenRegister(t *testing.T) {
	f := newRegisterFixture()

	reg, err := f.uc.Open(context.Background(), usecase.OpenInput{
		LocationID:     "loc-1",
		OpeningBalance: decimal.NewFromInt(50),
		ActorID:        "user-1",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if reg.Status != domain.RegisterOpen {
		t.Errorf("status = %s, want open", reg.Status)
	}
	if !reg.CashOnHand.Equal(decimal.NewFromInt(50)) {
		t.Errorf("cash on hand = %s, want 50", reg.CashOnHand)
	}
	if len(f.txManager.Began) != 1 || !f.txManager.Began[0].Committed {
		t.Fatal("open session was not committed in a transaction")
	}
	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventRegisterOpened {
		t.Fatalf("outbox events = %+v, want one %s", f.outbox.Events, domain.EventRegisterOpened)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditRegisterOpen {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditRegisterOpen)
	}
}

func TestOpenRegisterAuditFailureIsLoggedNotFatal(t *testing.T) {
	var logs bytes.Buffer

	f := &registerFixture{
		txManager: mocks.NewMockTransactionManager(),
		balances:  mocks.NewMockBalanceRepository(),
		ledger:    mocks.NewMockLedgerRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
		registers: mocks.NewMockRegisterRepository(),
	}
	f.audit.CreateFunc = func(ctx context.Context, log *domain.AuditLog) error {
		return errors.New("audit store down")
	}
	engine := usecase.NewMutationEngine(
		f.txManager, f.balances, f.ledger, f.outbox, f.audit,
		mocks.NewMockIDGenerator(), nil, usecase.AuditBestEffort, zerolog.New(&logs),
	)
	f.uc = usecase.NewRegisterUseCase(engine, f.registers, f.txManager, mocks.NewMockIDGenerator(), f.audit, f.outbox, nil)

	reg, err := f.uc.Open(context.Background(), usecase.OpenInput{
		LocationID:     "loc-1",
		OpeningBalance: decimal.NewFromInt(50),
		ActorID:        "user-1",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reg.Status != domain.RegisterOpen {
		t.Errorf("status = %s, want %s", reg.Status, domain.RegisterOpen)
	}
	if !strings.Contains(logs.String(), "audit write failed after commit") {
		t.Errorf("log output %q missing audit failure line", logs.String())
	}
}

func TestOpenRejectsSecondSession(t *testing.T) {
	f := newRegisterFixture()
	f.seedOpenSession(t, decimal.NewFromInt(50))

	_, err := f.uc.Open(context.Background(), usecase.OpenInput{
		LocationID:     "loc-1",
		OpeningBalance: decimal.NewFromInt(20),
		ActorID:        "user-2",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestOpenRejectsNegativeFloat(t *testing.T) {
	f := newRegisterFixture()

	_, err := f.uc.Open(context.Background(), usecase.OpenInput{
		LocationID:     "loc-1",
		OpeningBalance: decimal.NewFromInt(-1),
		ActorID:        "user-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestCashIn(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(100))

	movement, err := f.uc.CashIn(context.Background(), usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.NewFromInt(30),
		Reason:     "change float top-up",
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("CashIn: %v", err)
	}

	if movement.Kind != domain.MovementCashIn {
		t.Errorf("movement kind = %s, want cash_in", movement.Kind)
	}
	if got := f.balances.BalanceOf(reg.HolderRef()); !got.Equal(decimal.NewFromInt(130)) {
		t.Errorf("drawer = %s, want 130", got)
	}
	if !reg.TotalCashIn.Equal(decimal.NewFromInt(30)) {
		t.Errorf("total_cash_in = %s, want 30", reg.TotalCashIn)
	}

	movements, err := f.uc.ListMovements(context.Background(), reg.ID)
	if err != nil || len(movements) != 1 {
		t.Fatalf("movements = %v (%v), want 1", movements, err)
	}

	if len(f.ledger.Entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.ledger.Entries))
	}
	entry := f.ledger.Entries[0]
	if entry.Kind != domain.EntryCashIn || !entry.Delta.Equal(decimal.NewFromInt(30)) {
		t.Errorf("entry = %+v, want %s delta 30", entry, domain.EntryCashIn)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditCashIn {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditCashIn)
	}
}

func TestCashOut(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(100))

	_, err := f.uc.CashOut(context.Background(), usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.NewFromInt(40),
		Reason:     "bank deposit",
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("CashOut: %v", err)
	}

	if got := f.balances.BalanceOf(reg.HolderRef()); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("drawer = %s, want 60", got)
	}
	if !reg.TotalCashOut.Equal(decimal.NewFromInt(40)) {
		t.Errorf("total_cash_out = %s, want 40", reg.TotalCashOut)
	}
	if len(f.ledger.Entries) != 1 || !f.ledger.Entries[0].Delta.Equal(decimal.NewFromInt(-40)) {
		t.Fatalf("ledger entries = %+v, want one delta -40", f.ledger.Entries)
	}
}

func TestCashOutCannotOverdrawDrawer(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(20))

	_, err := f.uc.CashOut(context.Background(), usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.NewFromInt(50),
		Reason:     "bank deposit",
		ActorID:    "user-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
	if got := f.balances.BalanceOf(reg.HolderRef()); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("drawer = %s, want untouched 20", got)
	}
	if len(f.ledger.Entries) != 0 {
		t.Errorf("ledger entries = %d, want none", len(f.ledger.Entries))
	}
}

func TestMovementRequiresReason(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(100))

	_, err := f.uc.CashIn(context.Background(), usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.NewFromInt(10),
		ActorID:    "user-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestMovementRejectsNonPositiveAmount(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(100))

	_, err := f.uc.CashOut(context.Background(), usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.Zero,
		Reason:     "noop",
		ActorID:    "user-1",
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidAmount)
	}
}

func TestCloseRegister(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(50))
	reg.CashSalesTotal = decimal.NewFromInt(30)
	reg.TotalCashIn = decimal.NewFromInt(10)
	reg.TotalCashOut = decimal.NewFromInt(5)

	closed, err := f.uc.Close(context.Background(), usecase.CloseInput{
		RegisterID:     reg.ID,
		ClosingBalance: decimal.NewFromInt(80),
		ActorID:        "user-1",
	})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	if closed.Status != domain.RegisterClosed {
		t.Errorf("status = %s, want closed", closed.Status)
	}
	// Expected 50 + 30 + 10 - 5 = 85, counted 80, so the drawer is 5 short.
	if !closed.ExpectedBalance.Equal(decimal.NewFromInt(85)) {
		t.Errorf("expected balance = %s, want 85", closed.ExpectedBalance)
	}
	if !closed.Difference.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("difference = %s, want -5", closed.Difference)
	}
	if closed.ClosedAt == nil || closed.ClosedBy != "user-1" {
		t.Errorf("closed_at/by not recorded: %+v", closed)
	}
	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventRegisterClosed {
		t.Fatalf("outbox events = %+v, want one %s", f.outbox.Events, domain.EventRegisterClosed)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditRegisterClose {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditRegisterClose)
	}
}

func TestCloseTwiceRejected(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(50))

	first := usecase.CloseInput{
		RegisterID:     reg.ID,
		ClosingBalance: decimal.NewFromInt(50),
		ActorID:        "user-1",
	}
	if _, err := f.uc.Close(context.Background(), first); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if _, err := f.uc.Close(context.Background(), first); !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("second Close err = %v, want precondition failure", err)
	}
}

func TestCloseRejectsNegativeClosingBalance(t *testing.T) {
	f := newRegisterFixture()
	reg := f.seedOpenSession(t, decimal.NewFromInt(50))

	_, err := f.uc.Close(context.Background(), usecase.CloseInput{
		RegisterID:     reg.ID,
		ClosingBalance: decimal.NewFromInt(-10),
		ActorID:        "user-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}
