package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
)

// AuditMode selects how audit rows relate to the financial transaction.
type AuditMode string

const (
	// AuditBestEffort writes the audit row after commit; a failure there is
	// logged and swallowed, never reported as a failure of the committed
	// mutation.
	AuditBestEffort AuditMode = "best_effort"

	// AuditTransactional writes the audit row inside the transaction, so a
	// mutation without its audit entry can never be observed.
	AuditTransactional AuditMode = "transactional"
)

// Mutation is one balance change against one locked holder.
type Mutation struct {
	Ref           domain.HolderRef
	Delta         decimal.Decimal
	// Absolute makes Delta the new balance instead of a relative change
	// (stocktake corrections). The ledger entry still records the effective
	// change so balance_after stays derivable from history.
	Absolute      bool
	Kind          domain.EntryKind
	Preconditions []domain.Precondition
	Note          string
}

// Reference ties the produced ledger entries back to their document.
type Reference struct {
	Type string
	ID   string
}

// Locked is the set of holder rows locked by the engine, keyed by ref.
type Locked map[domain.HolderRef]*domain.Balance

// PrepareFunc runs inside the transaction once every holder in Refs is
// locked. It may read history and insert document rows through tx, and
// returns the mutations to apply. Returning an error aborts the transaction
// with no partial writes.
type PrepareFunc func(ctx context.Context, tx Transaction, locked Locked) ([]Mutation, error)

// MutationRequest describes one atomic execution of the balance-mutation
// protocol: lock, check, write, record, commit.
type MutationRequest struct {
	// Refs lists every holder the transaction may touch. The engine
	// deduplicates and locks them in the global holder order.
	Refs []domain.HolderRef

	// Mutations to apply when Prepare is nil.
	Mutations []Mutation

	// Prepare, when set, computes the mutations under lock (and may insert
	// document rows in the same transaction).
	Prepare PrepareFunc

	Reference Reference
	ActorID   string

	// Events are written to the outbox inside the transaction.
	Events []*domain.OutboxEvent

	// Audit is written according to the engine's audit mode. Failed
	// operations are never audited.
	Audit *domain.AuditLog
}

// MutationResult reports the committed outcome.
type MutationResult struct {
	Balances map[domain.HolderRef]decimal.Decimal
	EntryIDs []string
}

// MutationEngine is the single implementation of the balance-mutation
// protocol. Every balance-touching operation in the system goes through
// Execute; no caller re-implements begin/lock/check/write/commit.
type MutationEngine struct {
	txManager TransactionManager
	balances  BalanceRepository
	ledger    LedgerRepository
	outbox    OutboxRepository
	audit     AuditRepository
	idGen     IDGenerator
	retrier   Retrier
	auditMode AuditMode
	logger    zerolog.Logger
}

// NewMutationEngine creates a new MutationEngine. outbox and audit may be
// nil, in which case events and audit rows are skipped.
func NewMutationEngine(
	txManager TransactionManager,
	balances BalanceRepository,
	ledger LedgerRepository,
	outbox OutboxRepository,
	audit AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	auditMode AuditMode,
	logger zerolog.Logger,
) *MutationEngine {
	if auditMode == "" {
		auditMode = AuditBestEffort
	}
	return &MutationEngine{
		txManager: txManager,
		balances:  balances,
		ledger:    ledger,
		outbox:    outbox,
		audit:     audit,
		idGen:     idGen,
		retrier:   retrier,
		auditMode: auditMode,
		logger:    logger,
	}
}

// Execute runs one atomic balance mutation. Either every effect applies or
// none does; concurrent mutations of the same holders serialize on the row
// locks. Transient store failures (deadlock victim) retry the whole
// transaction; business failures never retry.
func (e *MutationEngine) Execute(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	refs := dedupeRefs(req.Refs)
	if len(refs) == 0 {
		return nil, errors.New("mutation request locks no holders")
	}

	// Global lock ordering: two overlapping multi-holder transactions
	// acquire locks in the same order and cannot deadlock each other.
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })

	var result *MutationResult

	run := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		res, err := e.executeOnce(txCtx, req, refs)
		if err != nil {
			return err
		}
		result = res
		return nil
	}

	var err error
	if e.retrier != nil {
		err = e.retrier.Retry(ctx, run)
	} else {
		err = run()
	}
	if err != nil {
		return nil, err
	}

	if req.Audit != nil && e.auditMode == AuditBestEffort {
		e.writeAudit(ctx, req.Audit)
	}

	return result, nil
}

func (e *MutationEngine) executeOnce(ctx context.Context, req MutationRequest, refs []domain.HolderRef) (*MutationResult, error) {
	tx, err := e.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := e.balances.GetForUpdate(ctx, tx, refs)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(refs) {
		return nil, domain.ErrHolderNotFound
	}

	locked := make(Locked, len(rows))
	for _, row := range rows {
		locked[row.Ref] = row
	}

	mutations := req.Mutations
	if req.Prepare != nil {
		mutations, err = req.Prepare(ctx, tx, locked)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	result := &MutationResult{Balances: make(map[domain.HolderRef]decimal.Decimal)}

	for _, mut := range mutations {
		current, ok := locked[mut.Ref]
		if !ok {
			return nil, fmt.Errorf("mutation against unlocked holder %s/%s", mut.Ref.Kind, mut.Ref.ID)
		}

		next := current.Amount.Add(mut.Delta)
		if mut.Absolute {
			next = mut.Delta
		}

		for _, check := range mut.Preconditions {
			if err := check(current, next); err != nil {
				return nil, err
			}
		}

		if err := e.balances.UpdateBalance(ctx, tx, mut.Ref, next, now); err != nil {
			return nil, err
		}

		entry := &domain.LedgerEntry{
			ID:            e.idGen.Generate(),
			Holder:        mut.Ref,
			Delta:         next.Sub(current.Amount),
			BalanceAfter:  next,
			Kind:          mut.Kind,
			ReferenceType: req.Reference.Type,
			ReferenceID:   req.Reference.ID,
			ActorID:       req.ActorID,
			Note:          mut.Note,
			CreatedAt:     now,
		}
		if err := e.ledger.Create(ctx, tx, entry); err != nil {
			return nil, err
		}

		// Sequential mutations on the same holder compound.
		current.Amount = next
		result.Balances[mut.Ref] = next
		result.EntryIDs = append(result.EntryIDs, entry.ID)
	}

	if e.outbox != nil {
		for _, event := range req.Events {
			if event.ID == "" {
				event.ID = e.idGen.Generate()
			}
			if event.CreatedAt.IsZero() {
				event.CreatedAt = now
			}
			if err := e.outbox.Create(ctx, tx, event); err != nil {
				return nil, err
			}
		}
	}

	if req.Audit != nil && e.auditMode == AuditTransactional && e.audit != nil {
		if err := e.audit.CreateTx(ctx, tx, req.Audit); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// writeAudit is best-effort: a missing audit row must never turn an already
// committed financial mutation into a reported failure.
func (e *MutationEngine) writeAudit(ctx context.Context, log *domain.AuditLog) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Create(ctx, log); err != nil {
		e.logger.Error().Err(err).
			Str("action", log.Action).
			Str("entity_id", log.EntityID).
			Msg("audit write failed after commit")
	}
}

func dedupeRefs(refs []domain.HolderRef) []domain.HolderRef {
	seen := make(map[domain.HolderRef]bool, len(refs))
	out := refs[:0:0]
	for _, ref := range refs {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}
