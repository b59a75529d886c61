package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
	"github.com/tillbook/tillbook/internal/usecase/mocks"
)

type customerFixture struct {
	balances  *mocks.MockBalanceRepository
	ledger    *mocks.MockLedgerRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	customers *mocks.MockCustomerRepository

	uc *usecase.CustomerUseCase
}

func newCustomerFixture() *customerFixture {
	f := &customerFixture{
		balances:  mocks.NewMockBalanceRepository(),
		ledger:    mocks.NewMockLedgerRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
		customers: mocks.NewMockCustomerRepository(),
	}
	engine := usecase.NewMutationEngine(
		mocks.NewMockTransactionManager(), f.balances, f.ledger, f.outbox, f.audit,
		mocks.NewMockIDGenerator(), nil, usecase.AuditBestEffort, zerolog.Nop(),
	)
	f.uc = usecase.NewCustomerUseCase(engine, f.customers, mocks.NewMockIDGenerator())
	return f
}

// seedCustomer installs an active customer with the given loyalty balance.
func (f *customerFixture) seedCustomer(t *testing.T, points decimal.Decimal) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		ID:            "cust-1",
		Name:          "Ada Example",
		Email:         "ada@example.com",
		LoyaltyPoints: points,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := f.customers.Create(context.Background(), customer); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	f.balances.Seed(customer.HolderRef(), points)
	return customer
}

func TestCreateCustomer(t *testing.T) {
	f := newCustomerFixture()

	customer, err := f.uc.Create(context.Background(), usecase.CustomerInput{
		Name:  "  Ada Example ",
		Email: "Ada@Example.COM",
		Phone: "555-0101",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if customer.Name != "Ada Example" || customer.Email != "ada@example.com" {
		t.Errorf("customer = %+v, want trimmed name and lowercased email", customer)
	}
	if !customer.LoyaltyPoints.IsZero() || !customer.IsActive {
		t.Errorf("customer = %+v, want active with zero points", customer)
	}
	if _, err := f.customers.GetByID(context.Background(), customer.ID); err != nil {
		t.Errorf("customer not persisted: %v", err)
	}
}

func TestCreateCustomerRejectsBadEmail(t *testing.T) {
	f := newCustomerFixture()

	if _, err := f.uc.Create(context.Background(), usecase.CustomerInput{
		Name:  "Ada Example",
		Email: "not-an-email",
	}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidEmail)
	}
}

func TestEarnPoints(t *testing.T) {
	f := newCustomerFixture()
	customer := f.seedCustomer(t, decimal.NewFromInt(10))

	balance, err := f.uc.EarnPoints(context.Background(), usecase.PointsInput{
		CustomerID: customer.ID,
		Points:     decimal.NewFromInt(25),
		Note:       "goodwill",
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("EarnPoints: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(35)) {
		t.Errorf("balance = %s, want 35", balance)
	}

	if len(f.ledger.Entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.ledger.Entries))
	}
	entry := f.ledger.Entries[0]
	if entry.Kind != domain.EntryPointsEarn || !entry.Delta.Equal(decimal.NewFromInt(25)) {
		t.Errorf("entry = %+v, want %s delta 25", entry, domain.EntryPointsEarn)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditPointsEarn {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditPointsEarn)
	}
}

func TestRedeemPoints(t *testing.T) {
	f := newCustomerFixture()
	customer := f.seedCustomer(t, decimal.NewFromInt(40))

	balance, err := f.uc.RedeemPoints(context.Background(), usecase.PointsInput{
		CustomerID: customer.ID,
		Points:     decimal.NewFromInt(15),
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("RedeemPoints: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(25)) {
		t.Errorf("balance = %s, want 25", balance)
	}

	entry := f.ledger.Entries[0]
	if entry.Kind != domain.EntryPointsRedeem || !entry.Delta.Equal(decimal.NewFromInt(-15)) {
		t.Errorf("entry = %+v, want %s delta -15", entry, domain.EntryPointsRedeem)
	}
}

func TestRedeemPointsCannotOverdraw(t *testing.T) {
	f := newCustomerFixture()
	customer := f.seedCustomer(t, decimal.NewFromInt(10))

	_, err := f.uc.RedeemPoints(context.Background(), usecase.PointsInput{
		CustomerID: customer.ID,
		Points:     decimal.NewFromInt(11),
		ActorID:    "user-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
	if got := f.balances.BalanceOf(customer.HolderRef()); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance = %s, want untouched 10", got)
	}
	if len(f.ledger.Entries) != 0 {
		t.Errorf("ledger entries = %+v, want none", f.ledger.Entries)
	}
}

func TestPointsRejectNonPositiveAmount(t *testing.T) {
	f := newCustomerFixture()
	customer := f.seedCustomer(t, decimal.NewFromInt(10))

	if _, err := f.uc.EarnPoints(context.Background(), usecase.PointsInput{
		CustomerID: customer.ID,
		Points:     decimal.Zero,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidAmount)
	}
}

func TestPointsRejectDeactivatedCustomer(t *testing.T) {
	f := newCustomerFixture()
	customer := f.seedCustomer(t, decimal.NewFromInt(10))
	if err := f.uc.Deactivate(context.Background(), customer.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	_, err := f.uc.EarnPoints(context.Background(), usecase.PointsInput{
		CustomerID: customer.ID,
		Points:     decimal.NewFromInt(5),
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}
