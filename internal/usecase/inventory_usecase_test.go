package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
	"github.com/tillbook/tillbook/internal/usecase/mocks"
)

type inventoryFixture struct {
	balances    *mocks.MockBalanceRepository
	ledger      *mocks.MockLedgerRepository
	outbox      *mocks.MockOutboxRepository
	audit       *mocks.MockAuditRepository
	products    *mocks.MockProductRepository
	stocks      *mocks.MockStockRepository
	adjustments *mocks.MockAdjustmentRepository
	transfers   *mocks.MockTransferRepository
	suppliers   *mocks.MockSupplierRepository
	purchases   *mocks.MockPurchaseRepository

	uc *usecase.InventoryUseCase
}

func newInventoryFixture(ctrl *gomock.Controller) *inventoryFixture {
	f := &inventoryFixture{
		balances:    mocks.NewMockBalanceRepository(),
		ledger:      mocks.NewMockLedgerRepository(),
		outbox:      mocks.NewMockOutboxRepository(),
		audit:       mocks.NewMockAuditRepository(),
		products:    mocks.NewMockProductRepository(),
		stocks:      mocks.NewMockStockRepository(),
		adjustments: mocks.NewMockAdjustmentRepository(ctrl),
		transfers:   mocks.NewMockTransferRepository(ctrl),
		suppliers:   mocks.NewMockSupplierRepository(ctrl),
		purchases:   mocks.NewMockPurchaseRepository(ctrl),
	}
	engine := usecase.NewMutationEngine(
		mocks.NewMockTransactionManager(), f.balances, f.ledger, f.outbox, f.audit,
		mocks.NewMockIDGenerator(), nil, usecase.AuditBestEffort, zerolog.Nop(),
	)
	f.uc = usecase.NewInventoryUseCase(
		engine, f.products, f.stocks, f.adjustments, f.transfers,
		f.suppliers, f.purchases, mocks.NewMockIDGenerator(), nil,
	)
	return f
}

// seedShelf installs prod-1 at loc-1 with the given on-hand quantity.
func (f *inventoryFixture) seedShelf(t *testing.T, qty decimal.Decimal) domain.HolderRef {
	t.Helper()
	if err := f.products.Create(context.Background(), &domain.Product{
		ID:       "prod-1",
		SKU:      "SKU-1",
		Name:     "Widget",
		IsActive: true,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	stock := f.stocks.SeedLevel(&domain.StockLevel{
		ID:         "stock-1",
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Quantity:   qty,
	})
	f.balances.Seed(stock.HolderRef(), qty)
	return stock.HolderRef()
}

func TestAdjustDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	ref := f.seedShelf(t, decimal.NewFromInt(10))

	f.adjustments.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	adj, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentDelta,
		Quantity:   decimal.NewFromInt(-4),
		Reason:     "breakage",
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if adj.Kind != domain.AdjustmentDelta || !adj.Quantity.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("adjustment = %+v, want delta of -4", adj)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("stock = %s, want 6", got)
	}
	if len(f.ledger.Entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.ledger.Entries))
	}
	entry := f.ledger.Entries[0]
	if entry.Kind != domain.EntryAdjustmentDelta || !entry.Delta.Equal(decimal.NewFromInt(-4)) || !entry.BalanceAfter.Equal(decimal.NewFromInt(6)) {
		t.Errorf("entry = %+v, want %s delta -4 closing at 6", entry, domain.EntryAdjustmentDelta)
	}
	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventStockAdjusted {
		t.Fatalf("outbox events = %+v, want one %s", f.outbox.Events, domain.EventStockAdjusted)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditStockAdjust {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditStockAdjust)
	}
}

func TestAdjustCorrectionSetsCountedLevel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	ref := f.seedShelf(t, decimal.NewFromInt(10))

	f.adjustments.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	// A stocktake counted 25 on the shelf.
	_, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentCorrection,
		Quantity:   decimal.NewFromInt(25),
		Reason:     "stocktake",
		ActorID:    "user-1",
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("stock = %s, want the counted 25", got)
	}
	if len(f.ledger.Entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(f.ledger.Entries))
	}
	entry := f.ledger.Entries[0]
	if entry.Kind != domain.EntryAdjustmentCorrection || !entry.Delta.Equal(decimal.NewFromInt(15)) {
		t.Errorf("entry = %+v, want %s recording the effective delta 15", entry, domain.EntryAdjustmentCorrection)
	}
}

func TestAdjustCannotDriveStockNegative(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	ref := f.seedShelf(t, decimal.NewFromInt(3))

	// Prepare runs before preconditions, so the adjustment row is written
	// to the transaction that then rolls back.
	f.adjustments.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentDelta,
		Quantity:   decimal.NewFromInt(-5),
		Reason:     "breakage",
		ActorID:    "user-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("stock = %s, want untouched 3", got)
	}
	if len(f.ledger.Entries) != 0 {
		t.Errorf("ledger entries = %+v, want none", f.ledger.Entries)
	}
	if len(f.outbox.Events) != 0 {
		t.Errorf("outbox events = %+v, want none", f.outbox.Events)
	}
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	_, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentDelta,
		Quantity:   decimal.Zero,
		Reason:     "nothing",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestAdjustRejectsNegativeCorrection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	_, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentCorrection,
		Quantity:   decimal.NewFromInt(-1),
		Reason:     "stocktake",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestAdjustRequiresReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	f.seedShelf(t, decimal.NewFromInt(10))

	_, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "prod-1",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentDelta,
		Quantity:   decimal.NewFromInt(1),
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestAdjustUnknownProduct(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	_, err := f.uc.Adjust(context.Background(), usecase.AdjustInput{
		ProductID:  "ghost",
		LocationID: "loc-1",
		Kind:       domain.AdjustmentDelta,
		Quantity:   decimal.NewFromInt(1),
		Reason:     "found on floor",
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("err = %v, want %v", err, domain.ErrProductNotFound)
	}
}

func (f *inventoryFixture) seedLocations(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := f.products.CreateLocation(context.Background(), &domain.Location{ID: id, Name: id}); err != nil {
			t.Fatalf("seed location: %v", err)
		}
	}
}

func TestRequestTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	f.seedShelf(t, decimal.NewFromInt(10))
	f.seedLocations(t, "loc-1", "loc-2")

	f.transfers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	transfer, err := f.uc.RequestTransfer(context.Background(), usecase.TransferRequestInput{
		ProductID:      "prod-1",
		FromLocationID: "loc-1",
		ToLocationID:   "loc-2",
		Quantity:       decimal.NewFromInt(4),
		Note:           "restock shop floor",
		ActorID:        "user-1",
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}
	if transfer.Status != domain.TransferPending {
		t.Errorf("status = %s, want %s", transfer.Status, domain.TransferPending)
	}
	if transfer.RequestedBy != "user-1" || transfer.DecidedAt != nil {
		t.Errorf("transfer = %+v, want requested by user-1 and undecided", transfer)
	}
}

func TestRequestTransferSameLocationRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	_, err := f.uc.RequestTransfer(context.Background(), usecase.TransferRequestInput{
		ProductID:      "prod-1",
		FromLocationID: "loc-1",
		ToLocationID:   "loc-1",
		Quantity:       decimal.NewFromInt(4),
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestRequestTransferUnknownLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	f.seedShelf(t, decimal.NewFromInt(10))
	f.seedLocations(t, "loc-1")

	_, err := f.uc.RequestTransfer(context.Background(), usecase.TransferRequestInput{
		ProductID:      "prod-1",
		FromLocationID: "loc-1",
		ToLocationID:   "loc-2",
		Quantity:       decimal.NewFromInt(4),
	})
	if !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("err = %v, want %v", err, domain.ErrLocationNotFound)
	}
}

// seedTransferStock installs prod-1 stock rows at loc-1 and loc-2 and
// returns both holder refs.
func (f *inventoryFixture) seedTransferStock(t *testing.T, fromQty, toQty decimal.Decimal) (domain.HolderRef, domain.HolderRef) {
	t.Helper()
	from := f.seedShelf(t, fromQty)
	to := f.stocks.SeedLevel(&domain.StockLevel{
		ID:         "stock-2",
		ProductID:  "prod-1",
		LocationID: "loc-2",
		Quantity:   toQty,
	})
	f.balances.Seed(to.HolderRef(), toQty)
	return from, to.HolderRef()
}

func pendingTransfer(qty decimal.Decimal) *domain.StockTransfer {
	return &domain.StockTransfer{
		ID:             "trans-1",
		ProductID:      "prod-1",
		FromLocationID: "loc-1",
		ToLocationID:   "loc-2",
		Quantity:       qty,
		Status:         domain.TransferPending,
		RequestedBy:    "user-1",
		Note:           "restock",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestApproveTransferMovesStock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	fromRef, toRef := f.seedTransferStock(t, decimal.NewFromInt(10), decimal.Zero)

	transfer := pendingTransfer(decimal.NewFromInt(4))
	f.transfers.EXPECT().GetByID(gomock.Any(), "trans-1").Return(transfer, nil)
	f.transfers.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "trans-1").Return(transfer, nil)
	f.transfers.EXPECT().Decide(gomock.Any(), gomock.Any(), "trans-1", domain.TransferApproved, "mgr-1", gomock.Any()).Return(nil)

	approved, err := f.uc.ApproveTransfer(context.Background(), usecase.DecideTransferInput{
		TransferID: "trans-1",
		ActorID:    "mgr-1",
		ActorName:  "Manager",
	})
	if err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}
	if approved.Status != domain.TransferApproved || approved.DecidedBy != "mgr-1" || approved.DecidedAt == nil {
		t.Errorf("transfer = %+v, want approved by mgr-1", approved)
	}

	if got := f.balances.BalanceOf(fromRef); !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("source stock = %s, want 6", got)
	}
	if got := f.balances.BalanceOf(toRef); !got.Equal(decimal.NewFromInt(4)) {
		t.Errorf("destination stock = %s, want 4", got)
	}

	var out, in *domain.LedgerEntry
	for _, e := range f.ledger.Entries {
		switch e.Kind {
		case domain.EntryTransferOut:
			out = e
		case domain.EntryTransferIn:
			in = e
		}
	}
	if out == nil || out.Holder != fromRef || !out.Delta.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("outbound entry = %+v, want delta -4 on the source", out)
	}
	if in == nil || in.Holder != toRef || !in.Delta.Equal(decimal.NewFromInt(4)) {
		t.Errorf("inbound entry = %+v, want delta 4 on the destination", in)
	}

	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventStockTransferred {
		t.Fatalf("outbox events = %+v, want one %s", f.outbox.Events, domain.EventStockTransferred)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditTransferApprove {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditTransferApprove)
	}
}

func TestApproveTransferInsufficientSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	fromRef, toRef := f.seedTransferStock(t, decimal.NewFromInt(2), decimal.Zero)

	transfer := pendingTransfer(decimal.NewFromInt(4))
	f.transfers.EXPECT().GetByID(gomock.Any(), "trans-1").Return(transfer, nil)
	f.transfers.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "trans-1").Return(transfer, nil)
	f.transfers.EXPECT().Decide(gomock.Any(), gomock.Any(), "trans-1", domain.TransferApproved, "mgr-1", gomock.Any()).Return(nil)

	_, err := f.uc.ApproveTransfer(context.Background(), usecase.DecideTransferInput{
		TransferID: "trans-1",
		ActorID:    "mgr-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}

	if got := f.balances.BalanceOf(fromRef); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("source stock = %s, want untouched 2", got)
	}
	if got := f.balances.BalanceOf(toRef); !got.IsZero() {
		t.Errorf("destination stock = %s, want untouched 0", got)
	}
	if len(f.ledger.Entries) != 0 {
		t.Errorf("ledger entries = %+v, want none", f.ledger.Entries)
	}
}

func TestApproveTransferAlreadyDecided(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	transfer := pendingTransfer(decimal.NewFromInt(4))
	transfer.Status = domain.TransferRejected
	f.transfers.EXPECT().GetByID(gomock.Any(), "trans-1").Return(transfer, nil)

	_, err := f.uc.ApproveTransfer(context.Background(), usecase.DecideTransferInput{
		TransferID: "trans-1",
		ActorID:    "mgr-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestApproveTransferRecheckedUnderLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	fromRef, toRef := f.seedTransferStock(t, decimal.NewFromInt(10), decimal.Zero)

	// Another approval won the race between the unlocked read and the
	// locked re-read. No Decide call may follow.
	transfer := pendingTransfer(decimal.NewFromInt(4))
	decided := *transfer
	decided.Status = domain.TransferApproved
	f.transfers.EXPECT().GetByID(gomock.Any(), "trans-1").Return(transfer, nil)
	f.transfers.EXPECT().GetByIDForUpdate(gomock.Any(), gomock.Any(), "trans-1").Return(&decided, nil)

	_, err := f.uc.ApproveTransfer(context.Background(), usecase.DecideTransferInput{
		TransferID: "trans-1",
		ActorID:    "mgr-1",
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}

	if got := f.balances.BalanceOf(fromRef); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("source stock = %s, want untouched 10", got)
	}
	if got := f.balances.BalanceOf(toRef); !got.IsZero() {
		t.Errorf("destination stock = %s, want untouched 0", got)
	}
}

func TestRejectTransfer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	transfer := pendingTransfer(decimal.NewFromInt(4))
	f.transfers.EXPECT().GetByID(gomock.Any(), "trans-1").Return(transfer, nil)
	f.transfers.EXPECT().Decide(gomock.Any(), gomock.Nil(), "trans-1", domain.TransferRejected, "mgr-1", gomock.Any()).Return(nil)

	rejected, err := f.uc.RejectTransfer(context.Background(), usecase.DecideTransferInput{
		TransferID: "trans-1",
		ActorID:    "mgr-1",
	})
	if err != nil {
		t.Fatalf("RejectTransfer: %v", err)
	}
	if rejected.Status != domain.TransferRejected || rejected.DecidedBy != "mgr-1" || rejected.DecidedAt == nil {
		t.Errorf("transfer = %+v, want rejected by mgr-1", rejected)
	}
	if len(f.ledger.Entries) != 0 {
		t.Errorf("ledger entries = %+v, want none for a rejection", f.ledger.Entries)
	}
}

func TestReceivePurchase(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	f.seedLocations(t, "loc-1")
	for _, id := range []string{"prod-1", "prod-2"} {
		if err := f.products.Create(context.Background(), &domain.Product{ID: id, SKU: "SKU-" + id, Name: id, IsActive: true}); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
	// Stock rows do not exist yet; Ensure creates them at zero.
	ref1 := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-prod-1|loc-1"}
	ref2 := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-prod-2|loc-1"}
	f.balances.Seed(ref1, decimal.Zero)
	f.balances.Seed(ref2, decimal.Zero)

	f.suppliers.EXPECT().GetByID(gomock.Any(), "sup-1").Return(&domain.Supplier{
		ID:       "sup-1",
		Name:     "Acme Wholesale",
		IsActive: true,
	}, nil)
	f.purchases.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	purchase, err := f.uc.ReceivePurchase(context.Background(), usecase.ReceivePurchaseInput{
		SupplierID: "sup-1",
		LocationID: "loc-1",
		Lines: []usecase.PurchaseLineInput{
			{ProductID: "prod-1", Quantity: decimal.NewFromInt(12), UnitCost: decimal.RequireFromString("2.50")},
			{ProductID: "prod-2", Quantity: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(4)},
		},
		ActorID: "user-1",
	})
	if err != nil {
		t.Fatalf("ReceivePurchase: %v", err)
	}
	if !purchase.Total.Equal(decimal.NewFromInt(42)) {
		t.Errorf("total = %s, want 42", purchase.Total)
	}
	if len(purchase.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(purchase.Lines))
	}

	if got := f.balances.BalanceOf(ref1); !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("prod-1 stock = %s, want 12", got)
	}
	if got := f.balances.BalanceOf(ref2); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("prod-2 stock = %s, want 3", got)
	}

	if len(f.ledger.Entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(f.ledger.Entries))
	}
	for _, e := range f.ledger.Entries {
		if e.Kind != domain.EntryPurchase {
			t.Errorf("entry kind = %s, want %s", e.Kind, domain.EntryPurchase)
		}
		if e.ReferenceID != purchase.ID {
			t.Errorf("entry reference = %s, want %s", e.ReferenceID, purchase.ID)
		}
	}
	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventPurchaseReceived {
		t.Fatalf("outbox events = %+v, want one %s", f.outbox.Events, domain.EventPurchaseReceived)
	}
	if len(f.audit.Logs) != 1 || f.audit.Logs[0].Action != domain.AuditPurchaseReceive {
		t.Fatalf("audit logs = %+v, want one %s", f.audit.Logs, domain.AuditPurchaseReceive)
	}
}

func TestReceivePurchaseInactiveSupplier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)

	f.suppliers.EXPECT().GetByID(gomock.Any(), "sup-1").Return(&domain.Supplier{
		ID:   "sup-1",
		Name: "Defunct Goods",
	}, nil)

	_, err := f.uc.ReceivePurchase(context.Background(), usecase.ReceivePurchaseInput{
		SupplierID: "sup-1",
		LocationID: "loc-1",
		Lines:      []usecase.PurchaseLineInput{{ProductID: "prod-1", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(1)}},
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestReceivePurchaseRejectsNonPositiveLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newInventoryFixture(ctrl)
	f.seedShelf(t, decimal.Zero)
	f.seedLocations(t, "loc-1")

	f.suppliers.EXPECT().GetByID(gomock.Any(), "sup-1").Return(&domain.Supplier{
		ID:       "sup-1",
		Name:     "Acme Wholesale",
		IsActive: true,
	}, nil)

	// Total computation fails before anything is written.
	_, err := f.uc.ReceivePurchase(context.Background(), usecase.ReceivePurchaseInput{
		SupplierID: "sup-1",
		LocationID: "loc-1",
		Lines:      []usecase.PurchaseLineInput{{ProductID: "prod-1", Quantity: decimal.Zero, UnitCost: decimal.NewFromInt(1)}},
	})
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidQuantity)
	}
}
