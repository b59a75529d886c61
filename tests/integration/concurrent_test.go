package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
	"github.com/tillbook/tillbook/tests/testutil"
)

func TestConcurrentGiftCardRedemptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	e := newEnv(testDB.Pool)

	card, err := e.giftCardUC.Issue(ctx, usecase.IssueInput{
		Code:           "RACE100",
		InitialBalance: decimal.NewFromInt(100),
		ActorID:        testutil.GenerateID(),
	})
	if err != nil {
		t.Fatalf("issue gift card: %v", err)
	}

	// 20 attempts of 10 against a balance of 100: exactly 10 may win.
	numRedemptions := 20
	amount := decimal.NewFromInt(10)

	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
	)
	wg.Add(numRedemptions)
	for range numRedemptions {
		go func() {
			defer wg.Done()
			_, err := e.giftCardUC.Redeem(ctx, usecase.RedeemInput{
				Code:    card.Code,
				Amount:  amount,
				ActorID: testutil.GenerateID(),
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 10 {
		t.Errorf("expected 10 successful redemptions, got %d", successCount.Load())
	}

	final, err := e.giftCardUC.Get(ctx, card.Code)
	if err != nil {
		t.Fatalf("get gift card: %v", err)
	}
	if !final.Balance.IsZero() {
		t.Errorf("expected balance 0, got %s", final.Balance)
	}
	if final.Status != domain.GiftCardDepleted {
		t.Errorf("expected status %s, got %s", domain.GiftCardDepleted, final.Status)
	}
}

func TestConcurrentCashMovementsNoOverdraft(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	e := newEnv(testDB.Pool)
	loc := testDB.CreateTestLocation(ctx, "shop floor")

	reg, err := e.registerUC.Open(ctx, usecase.OpenInput{
		LocationID:     loc.ID,
		OpeningBalance: decimal.NewFromInt(100),
		ActorID:        testutil.GenerateID(),
	})
	if err != nil {
		t.Fatalf("open register: %v", err)
	}

	numMovements := 20
	amount := decimal.NewFromInt(10)

	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
	)
	wg.Add(numMovements)
	for range numMovements {
		go func() {
			defer wg.Done()
			_, err := e.registerUC.CashOut(ctx, usecase.MovementInput{
				RegisterID: reg.ID,
				Amount:     amount,
				Reason:     "bank deposit",
				ActorID:    testutil.GenerateID(),
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 10 {
		t.Errorf("expected 10 successful cash-outs, got %d", successCount.Load())
	}

	balance, err := e.balances.Get(ctx, reg.HolderRef())
	if err != nil {
		t.Fatalf("get drawer balance: %v", err)
	}
	if !balance.Amount.IsZero() {
		t.Errorf("expected drawer balance 0, got %s", balance.Amount)
	}
}

func TestConcurrentOpposingTransfersNoDeadlock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	e := newEnv(testDB.Pool)

	product := testDB.CreateTestProduct(ctx, "SKU-RACE", "widget", decimal.NewFromInt(5))
	locA := testDB.CreateTestLocation(ctx, "front")
	locB := testDB.CreateTestLocation(ctx, "back")
	stockA := testDB.CreateTestStock(ctx, product.ID, locA.ID, decimal.NewFromInt(1000))
	stockB := testDB.CreateTestStock(ctx, product.ID, locB.ID, decimal.NewFromInt(1000))

	// Pending transfers in both directions. The global lock order on the
	// two stock rows is what keeps opposing approvals from deadlocking.
	numEach := 25
	qty := decimal.NewFromInt(10)
	actor := testutil.GenerateID()

	var transfers []*domain.StockTransfer
	for i := 0; i < numEach; i++ {
		ab, err := e.inventoryUC.RequestTransfer(ctx, usecase.TransferRequestInput{
			ProductID:      product.ID,
			FromLocationID: locA.ID,
			ToLocationID:   locB.ID,
			Quantity:       qty,
			ActorID:        actor,
		})
		if err != nil {
			t.Fatalf("request transfer: %v", err)
		}
		ba, err := e.inventoryUC.RequestTransfer(ctx, usecase.TransferRequestInput{
			ProductID:      product.ID,
			FromLocationID: locB.ID,
			ToLocationID:   locA.ID,
			Quantity:       qty,
			ActorID:        actor,
		})
		if err != nil {
			t.Fatalf("request transfer: %v", err)
		}
		transfers = append(transfers, ab, ba)
	}

	var (
		wg           sync.WaitGroup
		successCount atomic.Int32
	)
	wg.Add(len(transfers))
	for _, transfer := range transfers {
		go func() {
			defer wg.Done()
			_, err := e.inventoryUC.ApproveTransfer(ctx, usecase.DecideTransferInput{
				TransferID: transfer.ID,
				ActorID:    actor,
			})
			if err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(len(transfers)) {
		t.Errorf("expected %d approved transfers, got %d", len(transfers), successCount.Load())
	}

	// Equal opposing moves leave both shelves where they started.
	balA, err := e.balances.Get(ctx, stockA.HolderRef())
	if err != nil {
		t.Fatalf("get stock balance: %v", err)
	}
	balB, err := e.balances.Get(ctx, stockB.HolderRef())
	if err != nil {
		t.Fatalf("get stock balance: %v", err)
	}
	if !balA.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected stock A 1000, got %s", balA.Amount)
	}
	if !balB.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected stock B 1000, got %s", balB.Amount)
	}
}
