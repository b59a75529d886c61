package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
	"github.com/tillbook/tillbook/internal/usecase/mocks"
)

type engineFixture struct {
	txManager *mocks.MockTransactionManager
	balances  *mocks.MockBalanceRepository
	ledger    *mocks.MockLedgerRepository
	outbox    *mocks.MockOutboxRepository
	audit     *mocks.MockAuditRepository
	engine    *usecase.MutationEngine
}

func newEngineFixture(mode usecase.AuditMode) *engineFixture {
	f := &engineFixture{
		txManager: mocks.NewMockTransactionManager(),
		balances:  mocks.NewMockBalanceRepository(),
		ledger:    mocks.NewMockLedgerRepository(),
		outbox:    mocks.NewMockOutboxRepository(),
		audit:     mocks.NewMockAuditRepository(),
	}
	f.engine = usecase.NewMutationEngine(
		f.txManager,
		f.balances,
		f.ledger,
		f.outbox,
		f.audit,
		mocks.NewMockIDGenerator(),
		nil,
		mode,
		zerolog.Nop(),
	)
	return f
}

func (f *engineFixture) lastTx(t *testing.T) *mocks.MockTransaction {
	t.Helper()
	if len(f.txManager.Began) == 0 {
		t.Fatal("no transaction was begun")
	}
	return f.txManager.Began[len(f.txManager.Began)-1]
}

func TestMutationEngineAppliesDeltaAndRecordsLedger(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	result, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-3),
			Kind:  domain.EntrySale,
		}},
		Reference: usecase.Reference{Type: domain.AggregateSale, ID: "sale-1"},
		ActorID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected balance 7, got %s", got)
	}
	if !result.Balances[ref].Equal(decimal.NewFromInt(7)) {
		t.Fatalf("expected result balance 7, got %s", result.Balances[ref])
	}
	if len(f.ledger.Entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(f.ledger.Entries))
	}

	entry := f.ledger.Entries[0]
	if !entry.Delta.Equal(decimal.NewFromInt(-3)) || !entry.BalanceAfter.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected ledger entry: delta=%s after=%s", entry.Delta, entry.BalanceAfter)
	}
	if entry.ReferenceType != domain.AggregateSale || entry.ReferenceID != "sale-1" || entry.ActorID != "user-1" {
		t.Fatalf("entry missing provenance: %+v", entry)
	}

	if !f.lastTx(t).Committed {
		t.Fatal("expected transaction to be committed")
	}
}

func TestMutationEngineLocksHoldersInGlobalOrder(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)

	stock := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-9"}
	card := domain.HolderRef{Kind: domain.HolderGiftCard, ID: "gc-1"}
	register := domain.HolderRef{Kind: domain.HolderRegister, ID: "reg-1"}
	for _, ref := range []domain.HolderRef{stock, card, register} {
		f.balances.Seed(ref, decimal.NewFromInt(100))
	}

	// Refs arrive in an arbitrary order; the engine must sort before locking.
	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{register, stock, card},
		Mutations: []usecase.Mutation{
			{Ref: stock, Delta: decimal.NewFromInt(-1), Kind: domain.EntrySale},
		},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(f.balances.LockOrder) != 1 {
		t.Fatalf("expected 1 lock acquisition, got %d", len(f.balances.LockOrder))
	}
	locked := f.balances.LockOrder[0]
	for i := 1; i < len(locked); i++ {
		if !locked[i-1].Less(locked[i]) {
			t.Fatalf("lock order violated at %d: %v", i, locked)
		}
	}
}

func TestMutationEngineDeduplicatesRefs(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(5))

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref, ref, ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(1),
			Kind:  domain.EntryAdjustmentDelta,
		}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got := len(f.balances.LockOrder[0]); got != 1 {
		t.Fatalf("expected a single locked ref, got %d", got)
	}
}

func TestMutationEngineRejectsEmptyRefs(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{})
	if err == nil {
		t.Fatal("expected error for a request locking no holders")
	}
	if len(f.txManager.Began) != 0 {
		t.Fatal("no transaction should be begun for an empty request")
	}
}

func TestMutationEngineMissingHolderAborts(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "missing"}

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(1),
			Kind:  domain.EntryAdjustmentDelta,
		}},
	})
	if !errors.Is(err, domain.ErrHolderNotFound) {
		t.Fatalf("expected ErrHolderNotFound, got %v", err)
	}
	if f.lastTx(t).Committed {
		t.Fatal("transaction must not commit when a holder row is missing")
	}
}

func TestMutationEnginePreconditionFailureLeavesNoTrace(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(2))

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:           ref,
			Delta:         decimal.NewFromInt(-5),
			Kind:          domain.EntrySale,
			Preconditions: []domain.Precondition{domain.NonNegative("stock")},
		}},
		Events: []*domain.OutboxEvent{{EventType: domain.EventSaleCompleted}},
		Audit:  &domain.AuditLog{Action: domain.AuditSaleCheckout},
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("balance must be untouched, got %s", got)
	}
	if len(f.ledger.Entries) != 0 {
		t.Fatalf("no ledger entries expected, got %d", len(f.ledger.Entries))
	}
	if len(f.outbox.Events) != 0 {
		t.Fatalf("no outbox events expected, got %d", len(f.outbox.Events))
	}
	if len(f.audit.Logs) != 0 || len(f.audit.TxLogs) != 0 {
		t.Fatal("failed operations must never be audited")
	}

	tx := f.lastTx(t)
	if tx.Committed || !tx.RolledBack {
		t.Fatalf("expected rollback without commit, got committed=%v rolledback=%v", tx.Committed, tx.RolledBack)
	}
}

func TestMutationEngineAbsoluteMutation(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	// Stocktake correction: the counted quantity becomes the balance, and
	// the ledger records the effective change.
	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:      ref,
			Delta:    decimal.NewFromInt(25),
			Absolute: true,
			Kind:     domain.EntryAdjustmentCorrection,
		}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected balance 25, got %s", got)
	}
	entry := f.ledger.Entries[0]
	if !entry.Delta.Equal(decimal.NewFromInt(15)) || !entry.BalanceAfter.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected entry: delta=%s after=%s", entry.Delta, entry.BalanceAfter)
	}
}

func TestMutationEngineSequentialMutationsCompound(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderRegister, ID: "reg-1"}
	f.balances.SeedWithStatus(ref, decimal.NewFromInt(10), string(domain.RegisterOpen))

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{
			{Ref: ref, Delta: decimal.NewFromInt(5), Kind: domain.EntryCashIn},
			{Ref: ref, Delta: decimal.NewFromInt(-3), Kind: domain.EntryCashOut,
				Preconditions: []domain.Precondition{domain.NonNegative("drawer cash")}},
		},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("expected balance 12, got %s", got)
	}
	if len(f.ledger.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(f.ledger.Entries))
	}
	if !f.ledger.Entries[0].BalanceAfter.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("first entry after=%s, want 15", f.ledger.Entries[0].BalanceAfter)
	}
	if !f.ledger.Entries[1].BalanceAfter.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("second entry after=%s, want 12", f.ledger.Entries[1].BalanceAfter)
	}
}

func TestMutationEngineStatusPrecondition(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderRegister, ID: "reg-1"}
	f.balances.SeedWithStatus(ref, decimal.NewFromInt(50), string(domain.RegisterClosed))

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:           ref,
			Delta:         decimal.NewFromInt(10),
			Kind:          domain.EntryCashIn,
			Preconditions: []domain.Precondition{domain.StatusIs(string(domain.RegisterOpen))},
		}},
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected status precondition failure, got %v", err)
	}
	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestMutationEnginePrepareRunsUnderLockAndCanAbort(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	var sawLocked bool
	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Prepare: func(ctx context.Context, tx usecase.Transaction, locked usecase.Locked) ([]usecase.Mutation, error) {
			row, ok := locked[ref]
			sawLocked = ok && row.Amount.Equal(decimal.NewFromInt(10))
			return nil, domain.PreconditionError("nothing to do")
		},
	})
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		t.Fatalf("expected prepare error to surface, got %v", err)
	}
	if !sawLocked {
		t.Fatal("prepare must observe the locked holder rows")
	}
	if f.lastTx(t).Committed {
		t.Fatal("prepare failure must abort the transaction")
	}
}

func TestMutationEngineWritesOutboxEventsInTransaction(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	event := &domain.OutboxEvent{
		AggregateID:   "sale-1",
		AggregateType: domain.AggregateSale,
		EventType:     domain.EventSaleCompleted,
		Payload:       map[string]any{"sale_id": "sale-1"},
	}

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-1),
			Kind:  domain.EntrySale,
		}},
		Events: []*domain.OutboxEvent{event},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(f.outbox.Events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(f.outbox.Events))
	}
	if f.outbox.Events[0].ID == "" || f.outbox.Events[0].CreatedAt.IsZero() {
		t.Fatalf("engine must fill event ID and timestamp: %+v", f.outbox.Events[0])
	}
}

func TestMutationEngineBestEffortAuditWritesAfterCommit(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-1),
			Kind:  domain.EntrySale,
		}},
		Audit: &domain.AuditLog{Action: domain.AuditSaleCheckout, EntityID: "sale-1"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(f.audit.Logs) != 1 {
		t.Fatalf("expected 1 best-effort audit row, got %d", len(f.audit.Logs))
	}
	if len(f.audit.TxLogs) != 0 {
		t.Fatal("best-effort mode must not write audit inside the transaction")
	}
}

func TestMutationEngineBestEffortAuditFailureIsSwallowed(t *testing.T) {
	f := newEngineFixture(usecase.AuditBestEffort)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	f.audit.CreateFunc = func(ctx context.Context, log *domain.AuditLog) error {
		return errors.New("audit store down")
	}

	result, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-1),
			Kind:  domain.EntrySale,
		}},
		Audit: &domain.AuditLog{Action: domain.AuditSaleCheckout},
	})
	if err != nil {
		t.Fatalf("committed mutation must not fail on audit error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result despite the audit failure")
	}
	if got := f.balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("expected committed balance 9, got %s", got)
	}
}

func TestMutationEngineTransactionalAuditWritesInTransaction(t *testing.T) {
	f := newEngineFixture(usecase.AuditTransactional)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-1),
			Kind:  domain.EntrySale,
		}},
		Audit: &domain.AuditLog{Action: domain.AuditSaleCheckout},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(f.audit.TxLogs) != 1 || len(f.audit.Logs) != 0 {
		t.Fatalf("expected in-transaction audit only, got tx=%d post=%d", len(f.audit.TxLogs), len(f.audit.Logs))
	}
}

func TestMutationEngineTransactionalAuditFailureAborts(t *testing.T) {
	f := newEngineFixture(usecase.AuditTransactional)
	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	f.balances.Seed(ref, decimal.NewFromInt(10))

	f.audit.CreateTxFunc = func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
		return errors.New("audit store down")
	}

	_, err := f.engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-1),
			Kind:  domain.EntrySale,
		}},
		Audit: &domain.AuditLog{Action: domain.AuditSaleCheckout},
	})
	if err == nil {
		t.Fatal("transactional audit failure must fail the mutation")
	}
	if f.lastTx(t).Committed {
		t.Fatal("transaction must not commit when the audit write fails")
	}
}

func TestMutationEngineRetriesTransientBeginFailure(t *testing.T) {
	txManager := mocks.NewMockTransactionManager()
	balances := mocks.NewMockBalanceRepository()
	ledger := mocks.NewMockLedgerRepository()

	ref := domain.HolderRef{Kind: domain.HolderStock, ID: "stock-1"}
	balances.Seed(ref, decimal.NewFromInt(10))

	begins := 0
	txManager.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
		begins++
		if begins == 1 {
			return nil, errors.New("deadlock detected")
		}
		return &mocks.MockTransaction{}, nil
	}

	retrier := mocks.NewMockRetrier()
	retrier.RetryFunc = func(ctx context.Context, operation func() error) error {
		if err := operation(); err != nil {
			return operation()
		}
		return nil
	}

	engine := usecase.NewMutationEngine(
		txManager, balances, ledger, nil, nil,
		mocks.NewMockIDGenerator(), retrier,
		usecase.AuditBestEffort, zerolog.Nop(),
	)

	_, err := engine.Execute(context.Background(), usecase.MutationRequest{
		Refs: []domain.HolderRef{ref},
		Mutations: []usecase.Mutation{{
			Ref:   ref,
			Delta: decimal.NewFromInt(-2),
			Kind:  domain.EntrySale,
		}},
	})
	if err != nil {
		t.Fatalf("Execute should succeed on retry: %v", err)
	}
	if begins != 2 {
		t.Fatalf("expected 2 begin attempts, got %d", begins)
	}
	if got := balances.BalanceOf(ref); !got.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected balance 8, got %s", got)
	}
}
