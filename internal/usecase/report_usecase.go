package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

const summaryCacheTTL = 5 * time.Minute

// ReportUseCase produces read-only views over sales, registers and the
// ledger. Reports never mutate balances.
type ReportUseCase struct {
	saleRepo     SaleRepository
	registerRepo RegisterRepository
	balanceRepo  BalanceRepository
	ledgerRepo   LedgerRepository
	cache        Cache
	logger       zerolog.Logger
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(
	saleRepo SaleRepository,
	registerRepo RegisterRepository,
	balanceRepo BalanceRepository,
	ledgerRepo LedgerRepository,
	cache Cache,
	logger zerolog.Logger,
) *ReportUseCase {
	return &ReportUseCase{
		saleRepo:     saleRepo,
		registerRepo: registerRepo,
		balanceRepo:  balanceRepo,
		ledgerRepo:   ledgerRepo,
		cache:        cache,
		logger:       logger,
	}
}

// SalesSummary aggregates completed sales over [from, to). Summaries for
// fully past periods are cached briefly; the numbers do not change.
func (uc *ReportUseCase) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	if !to.After(from) {
		return nil, domain.PreconditionError("summary period end must be after its start")
	}

	key := "report:sales:" + from.UTC().Format(time.RFC3339) + ":" + to.UTC().Format(time.RFC3339)
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			var cached SalesSummary
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	summary, err := uc.saleRepo.Summarize(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := uc.cache.Set(ctx, key, data, summaryCacheTTL); err != nil {
				uc.logger.Warn().Err(err).Str("key", key).Msg("summary cache write failed")
			}
		}
	}
	return summary, nil
}

// RegisterReconciliation compares a register session's drawer value three
// ways: the engine-managed cash balance, the recomputation from the kind
// totals, and the replayed cash ledger.
type RegisterReconciliation struct {
	RegisterID     string          `json:"register_id"`
	Status         string          `json:"status"`
	CashOnHand     decimal.Decimal `json:"cash_on_hand"`
	DrawerBalance  decimal.Decimal `json:"drawer_balance"`
	LedgerBalance  decimal.Decimal `json:"ledger_balance"`
	Consistent     bool            `json:"consistent"`
	ClosingBalance decimal.Decimal `json:"closing_balance,omitempty"`
	Difference     decimal.Decimal `json:"difference,omitempty"`
}

// ReconcileRegister verifies one register session. All three drawer values
// must agree; a mismatch means a write bypassed the mutation engine.
func (uc *ReportUseCase) ReconcileRegister(ctx context.Context, registerID string) (*RegisterReconciliation, error) {
	register, err := uc.registerRepo.GetByID(ctx, registerID)
	if err != nil {
		return nil, err
	}

	ledgerSum, err := uc.ledgerRepo.SumDeltas(ctx, register.HolderRef())
	if err != nil {
		return nil, err
	}
	ledgerBalance := register.OpeningBalance.Add(ledgerSum)

	rec := &RegisterReconciliation{
		RegisterID:     register.ID,
		Status:         string(register.Status),
		CashOnHand:     register.CashOnHand,
		DrawerBalance:  register.DrawerBalance(),
		LedgerBalance:  ledgerBalance,
		ClosingBalance: register.ClosingBalance,
		Difference:     register.Difference,
	}
	rec.Consistent = rec.CashOnHand.Equal(rec.DrawerBalance) && rec.CashOnHand.Equal(rec.LedgerBalance)
	return rec, nil
}

// HolderVerification is the ledger-replay check for one holder.
type HolderVerification struct {
	Ref          domain.HolderRef `json:"ref"`
	Balance      decimal.Decimal  `json:"balance"`
	ReplaySum    decimal.Decimal  `json:"replay_sum"`
	LastAfter    decimal.Decimal  `json:"last_balance_after"`
	EntryMatches bool             `json:"entry_matches"`
	SumMatches   bool             `json:"sum_matches"`
}

// VerifyHolder replays one holder's ledger and checks both invariants: the
// deltas sum to the current balance, and the latest entry's balance_after
// equals it.
func (uc *ReportUseCase) VerifyHolder(ctx context.Context, ref domain.HolderRef) (*HolderVerification, error) {
	balance, err := uc.balanceRepo.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	sum, err := uc.ledgerRepo.SumDeltas(ctx, ref)
	if err != nil {
		return nil, err
	}

	v := &HolderVerification{
		Ref:       ref,
		Balance:   balance.Amount,
		ReplaySum: sum,
	}

	last, err := uc.ledgerRepo.LatestByHolder(ctx, ref)
	switch {
	case err != nil:
		return nil, err
	case last == nil:
		// No history: the balance must still be whatever the holder was
		// created with. Only registers start non-zero.
		v.EntryMatches = true
	default:
		v.LastAfter = last.BalanceAfter
		v.EntryMatches = balance.Amount.Equal(last.BalanceAfter)
	}

	base := decimal.Zero
	if ref.Kind == domain.HolderRegister {
		register, err := uc.registerRepo.GetByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		base = register.OpeningBalance
	}
	v.SumMatches = balance.Amount.Equal(base.Add(sum))

	return v, nil
}

// VerifyLedger replays every holder of one kind and returns the holders
// whose balance disagrees with their history.
func (uc *ReportUseCase) VerifyLedger(ctx context.Context, kind domain.HolderKind, limit, offset int) ([]*HolderVerification, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	refs, err := uc.ledgerRepo.ListHolders(ctx, kind, limit, offset)
	if err != nil {
		return nil, err
	}

	var broken []*HolderVerification
	for _, ref := range refs {
		v, err := uc.VerifyHolder(ctx, ref)
		if err != nil {
			return nil, err
		}
		if !v.EntryMatches || !v.SumMatches {
			uc.logger.Error().
				Str("holder_kind", string(ref.Kind)).
				Str("holder_id", ref.ID).
				Str("balance", v.Balance.String()).
				Str("replay_sum", v.ReplaySum.String()).
				Msg("ledger verification mismatch")
			broken = append(broken, v)
		}
	}
	return broken, nil
}

// HolderHistory lists a holder's ledger entries, newest first.
func (uc *ReportUseCase) HolderHistory(ctx context.Context, ref domain.HolderRef, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.ledgerRepo.ListByHolder(ctx, ref, limit, offset)
}

// ReferenceHistory lists the ledger entries produced by one document.
func (uc *ReportUseCase) ReferenceHistory(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	return uc.ledgerRepo.ListByReference(ctx, referenceType, referenceID)
}
