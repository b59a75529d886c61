package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
	"github.com/tillbook/tillbook/tests/testutil"
)

func TestRegisterSessionRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	e := newEnv(testDB.Pool)
	loc := testDB.CreateTestLocation(ctx, "till 1")
	actor := testutil.GenerateID()

	reg, err := e.registerUC.Open(ctx, usecase.OpenInput{
		LocationID:     loc.ID,
		OpeningBalance: decimal.NewFromInt(100),
		ActorID:        actor,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// A second session cannot open while this one is live; the partial
	// unique index backs up the application check.
	if _, err := e.registerUC.Open(ctx, usecase.OpenInput{
		LocationID:     loc.ID,
		OpeningBalance: decimal.NewFromInt(50),
		ActorID:        actor,
	}); err == nil {
		t.Fatal("second open succeeded while a session was live")
	}

	if _, err := e.registerUC.CashIn(ctx, usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.NewFromInt(50),
		Reason:     "change float",
		ActorID:    actor,
	}); err != nil {
		t.Fatalf("cash in: %v", err)
	}
	if _, err := e.registerUC.CashOut(ctx, usecase.MovementInput{
		RegisterID: reg.ID,
		Amount:     decimal.NewFromInt(30),
		Reason:     "bank deposit",
		ActorID:    actor,
	}); err != nil {
		t.Fatalf("cash out: %v", err)
	}

	movements, err := e.registerUC.ListMovements(ctx, reg.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Errorf("movements = %d, want 2", len(movements))
	}

	// 100 + 50 - 30 counted exactly: no difference.
	closed, err := e.registerUC.Close(ctx, usecase.CloseInput{
		RegisterID:     reg.ID,
		ClosingBalance: decimal.NewFromInt(120),
		ActorID:        actor,
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.RegisterClosed {
		t.Errorf("status = %s, want %s", closed.Status, domain.RegisterClosed)
	}
	if !closed.ExpectedBalance.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected balance = %s, want 120", closed.ExpectedBalance)
	}
	if !closed.Difference.IsZero() {
		t.Errorf("difference = %s, want 0", closed.Difference)
	}

	// The drawer's ledger history replays to the counted cash.
	entries, err := e.ledger.ListByHolder(ctx, reg.HolderRef(), 100, 0)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	sum := decimal.Zero
	for _, entry := range entries {
		sum = sum.Add(entry.Delta)
	}
	if !sum.Equal(decimal.NewFromInt(120)) {
		t.Errorf("replayed drawer balance = %s, want 120", sum)
	}

	// With the session closed a new one may open.
	if _, err := e.registerUC.Open(ctx, usecase.OpenInput{
		LocationID:     loc.ID,
		OpeningBalance: decimal.NewFromInt(120),
		ActorID:        actor,
	}); err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
}

func TestRegisterCloseRecordsShortfall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	e := newEnv(testDB.Pool)
	loc := testDB.CreateTestLocation(ctx, "till 1")
	actor := testutil.GenerateID()

	reg, err := e.registerUC.Open(ctx, usecase.OpenInput{
		LocationID:     loc.ID,
		OpeningBalance: decimal.NewFromInt(100),
		ActorID:        actor,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	closed, err := e.registerUC.Close(ctx, usecase.CloseInput{
		RegisterID:     reg.ID,
		ClosingBalance: decimal.NewFromInt(95),
		ActorID:        actor,
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.Difference.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("difference = %s, want -5", closed.Difference)
	}
}
