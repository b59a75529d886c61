package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository. Ledger entries are
// append-only; there is no update or delete statement in this file on
// purpose.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const ledgerColumns = `id, holder_kind, holder_id, delta, balance_after, kind, reference_type, reference_id, actor_id, note, created_at`

// Create inserts one ledger entry within the caller's transaction.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q(r.pool, tx).Exec(ctx, query,
		entry.ID,
		string(entry.Holder.Kind),
		entry.Holder.ID,
		decimalToNumeric(entry.Delta),
		decimalToNumeric(entry.BalanceAfter),
		string(entry.Kind),
		entry.ReferenceType,
		entry.ReferenceID,
		entry.ActorID,
		entry.Note,
		timeToPgTimestamptz(entry.CreatedAt),
	)
	return err
}

// ListByHolder retrieves a holder's entries, newest first.
func (r *LedgerRepository) ListByHolder(ctx context.Context, ref domain.HolderRef, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE holder_kind = $1 AND holder_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, string(ref.Kind), ref.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// ListByReference retrieves the entries produced by one document.
func (r *LedgerRepository) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, referenceType, referenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// LatestByHolder retrieves a holder's most recent entry, or nil when the
// holder has no history.
func (r *LedgerRepository) LatestByHolder(ctx context.Context, ref domain.HolderRef) (*domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE holder_kind = $1 AND holder_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	entry, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, string(ref.Kind), ref.ID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// SumDeltas sums every delta ever recorded for a holder.
func (r *LedgerRepository) SumDeltas(ctx context.Context, ref domain.HolderRef) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(delta), 0)
		FROM ledger_entries
		WHERE holder_kind = $1 AND holder_id = $2
	`
	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, string(ref.Kind), ref.ID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(sum), nil
}

// ListHolders lists the distinct holders of one kind that have history.
func (r *LedgerRepository) ListHolders(ctx context.Context, kind domain.HolderKind, limit, offset int) ([]domain.HolderRef, error) {
	query := `
		SELECT DISTINCT holder_id
		FROM ledger_entries
		WHERE holder_kind = $1
		ORDER BY holder_id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(kind), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.HolderRef
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		refs = append(refs, domain.HolderRef{Kind: kind, ID: id})
	}
	return refs, rows.Err()
}

func scanLedgerEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanLedgerEntry(row interface{ Scan(dest ...any) error }) (*domain.LedgerEntry, error) {
	var (
		entry        domain.LedgerEntry
		holderKind   string
		delta        pgtype.Numeric
		balanceAfter pgtype.Numeric
		kind         string
		createdAt    pgtype.Timestamptz
	)
	err := row.Scan(
		&entry.ID,
		&holderKind,
		&entry.Holder.ID,
		&delta,
		&balanceAfter,
		&kind,
		&entry.ReferenceType,
		&entry.ReferenceID,
		&entry.ActorID,
		&entry.Note,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Holder.Kind = domain.HolderKind(holderKind)
	entry.Delta = numericToDecimal(delta)
	entry.BalanceAfter = numericToDecimal(balanceAfter)
	entry.Kind = domain.EntryKind(kind)
	entry.CreatedAt = createdAt.Time
	return &entry, nil
}
