package usecase_test

import (
	"context"
	"encoding/json"
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

func TestSalesSummaryCacheMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	sales := mocks.NewMockSaleRepository()
	sales.SummarizeFunc = func(ctx context.Context, f, tt time.Time) (*usecase.SalesSummary, error) {
		return &usecase.SalesSummary{
			From:      f,
			To:        tt,
			SaleCount: 3,
			NetAmount: decimal.NewFromInt(120),
		}, nil
	}

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), 5*time.Minute).Return(nil)

	uc := usecase.NewReportUseCase(sales, mocks.NewMockRegisterRepository(), mocks.NewMockBalanceRepository(), mocks.NewMockLedgerRepository(), cache, zerolog.Nop())

	summary, err := uc.SalesSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("SalesSummary: %v", err)
	}
	if summary.SaleCount != 3 || !summary.NetAmount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("summary = %+v, want 3 sales netting 120", summary)
	}
}

func TestSalesSummaryCacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cached, err := json.Marshal(&usecase.SalesSummary{
		From:      from,
		To:        to,
		SaleCount: 7,
		NetAmount: decimal.NewFromInt(900),
	})
	if err != nil {
		t.Fatal(err)
	}

	sales := mocks.NewMockSaleRepository()
	sales.SummarizeFunc = func(ctx context.Context, f, tt time.Time) (*usecase.SalesSummary, error) {
		t.Fatal("Summarize called on a cache hit")
		return nil, nil
	}

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "report:sales:2026-03-01T00:00:00Z:2026-03-02T00:00:00Z").Return(cached, nil)

	uc := usecase.NewReportUseCase(sales, mocks.NewMockRegisterRepository(), mocks.NewMockBalanceRepository(), mocks.NewMockLedgerRepository(), cache, zerolog.Nop())

	summary, err := uc.SalesSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("SalesSummary: %v", err)
	}
	if summary.SaleCount != 7 || !summary.NetAmount.Equal(decimal.NewFromInt(900)) {
		t.Errorf("summary = %+v, want the cached 7 sales netting 900", summary)
	}
}

func TestSalesSummaryCacheWriteFailureIsSoft(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	uc := usecase.NewReportUseCase(mocks.NewMockSaleRepository(), mocks.NewMockRegisterRepository(), mocks.NewMockBalanceRepository(), mocks.NewMockLedgerRepository(), cache, zerolog.Nop())

	if _, err := uc.SalesSummary(context.Background(), from, to); err != nil {
		t.Fatalf("SalesSummary with broken cache: %v", err)
	}
}

func TestSalesSummaryRejectsInvalidPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The cache is never consulted for a rejected period.
	cache := mocks.NewMockCache(ctrl)

	uc := usecase.NewReportUseCase(mocks.NewMockSaleRepository(), mocks.NewMockRegisterRepository(), mocks.NewMockBalanceRepository(), mocks.NewMockLedgerRepository(), cache, zerolog.Nop())

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := uc.SalesSummary(context.Background(), at, at); !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
}

func TestReconcileRegisterConsistent(t *testing.T) {
	registers := mocks.NewMockRegisterRepository()
	ledger := mocks.NewMockLedgerRepository()

	reg := &domain.CashRegister{
		ID:             "reg-1",
		Status:         domain.RegisterOpen,
		OpeningBalance: decimal.NewFromInt(50),
		CashOnHand:     decimal.NewFromInt(80),
		CashSalesTotal: decimal.NewFromInt(30),
	}
	if err := registers.Create(context.Background(), nil, reg); err != nil {
		t.Fatal(err)
	}
	if err := ledger.Create(context.Background(), nil, &domain.LedgerEntry{
		ID:           "entry-1",
		Holder:       reg.HolderRef(),
		Delta:        decimal.NewFromInt(30),
		BalanceAfter: decimal.NewFromInt(80),
		Kind:         domain.EntryCashSale,
	}); err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewReportUseCase(mocks.NewMockSaleRepository(), registers, mocks.NewMockBalanceRepository(), ledger, nil, zerolog.Nop())

	rec, err := uc.ReconcileRegister(context.Background(), "reg-1")
	if err != nil {
		t.Fatalf("ReconcileRegister: %v", err)
	}
	if !rec.Consistent {
		t.Errorf("reconciliation = %+v, want consistent", rec)
	}
	if !rec.LedgerBalance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("ledger balance = %s, want 80", rec.LedgerBalance)
	}
}

func TestReconcileRegisterDetectsBypass(t *testing.T) {
	registers := mocks.NewMockRegisterRepository()
	ledger := mocks.NewMockLedgerRepository()

	// CashOnHand was touched without a matching ledger entry or total.
	reg := &domain.CashRegister{
		ID:             "reg-1",
		Status:         domain.RegisterOpen,
		OpeningBalance: decimal.NewFromInt(50),
		CashOnHand:     decimal.NewFromInt(90),
		CashSalesTotal: decimal.NewFromInt(30),
	}
	if err := registers.Create(context.Background(), nil, reg); err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewReportUseCase(mocks.NewMockSaleRepository(), registers, mocks.NewMockBalanceRepository(), ledger, nil, zerolog.Nop())

	rec, err := uc.ReconcileRegister(context.Background(), "reg-1")
	if err != nil {
		t.Fatalf("ReconcileRegister: %v", err)
	}
	if rec.Consistent {
		t.Errorf("reconciliation = %+v, want inconsistent", rec)
	}
}

func TestVerifyHolderMatches(t *testing.T) {
	registers := mocks.NewMockRegisterRepository()
	balances := mocks.NewMockBalanceRepository()
	ledger := mocks.NewMockLedgerRepository()

	reg := &domain.CashRegister{
		ID:             "reg-1",
		Status:         domain.RegisterOpen,
		OpeningBalance: decimal.NewFromInt(50),
	}
	if err := registers.Create(context.Background(), nil, reg); err != nil {
		t.Fatal(err)
	}
	balances.Seed(reg.HolderRef(), decimal.NewFromInt(80))
	if err := ledger.Create(context.Background(), nil, &domain.LedgerEntry{
		ID:           "entry-1",
		Holder:       reg.HolderRef(),
		Delta:        decimal.NewFromInt(30),
		BalanceAfter: decimal.NewFromInt(80),
		Kind:         domain.EntryCashSale,
	}); err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewReportUseCase(mocks.NewMockSaleRepository(), registers, balances, ledger, nil, zerolog.Nop())

	v, err := uc.VerifyHolder(context.Background(), reg.HolderRef())
	if err != nil {
		t.Fatalf("VerifyHolder: %v", err)
	}
	if !v.EntryMatches || !v.SumMatches {
		t.Errorf("verification = %+v, want both checks passing", v)
	}
}

func TestVerifyLedgerReturnsOnlyBrokenHolders(t *testing.T) {
	balances := mocks.NewMockBalanceRepository()
	ledger := mocks.NewMockLedgerRepository()

	good := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-good"}
	balances.Seed(good, decimal.NewFromInt(5))
	if err := ledger.Create(context.Background(), nil, &domain.LedgerEntry{
		ID: "entry-1", Holder: good,
		Delta: decimal.NewFromInt(5), BalanceAfter: decimal.NewFromInt(5),
		Kind: domain.EntryPurchase,
	}); err != nil {
		t.Fatal(err)
	}

	// The broken holder's balance drifted from its history.
	bad := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-bad"}
	balances.Seed(bad, decimal.NewFromInt(9))
	if err := ledger.Create(context.Background(), nil, &domain.LedgerEntry{
		ID: "entry-2", Holder: bad,
		Delta: decimal.NewFromInt(5), BalanceAfter: decimal.NewFromInt(5),
		Kind: domain.EntryPurchase,
	}); err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewReportUseCase(mocks.NewMockSaleRepository(), mocks.NewMockRegisterRepository(), balances, ledger, nil, zerolog.Nop())

	broken, err := uc.VerifyLedger(context.Background(), domain.HolderStock, 100, 0)
	if err != nil {
		t.Fatalf("VerifyLedger: %v", err)
	}
	if len(broken) != 1 || broken[0].Ref != bad {
		t.Fatalf("broken holders = %+v, want just %v", broken, bad)
	}
}
