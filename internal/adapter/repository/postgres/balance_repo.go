package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository over the four
// holder tables. Each holder kind maps to one table and one balance column;
// the mutation engine sees them all as (ref, amount, status) rows.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

// holderQueries maps each holder kind to its lock and update statements.
// The status expression normalizes every table to a single status string.
var holderQueries = map[domain.HolderKind]struct {
	selectForUpdate string
	selectOne       string
	update          string
}{
	domain.HolderStock: {
		selectForUpdate: `SELECT id, quantity, '' AS status, updated_at FROM stock_levels WHERE id = $1 FOR UPDATE`,
		selectOne:       `SELECT id, quantity, '' AS status, updated_at FROM stock_levels WHERE id = $1`,
		update:          `UPDATE stock_levels SET quantity = $2, updated_at = $3 WHERE id = $1`,
	},
	domain.HolderGiftCard: {
		selectForUpdate: `SELECT id, balance, status, updated_at FROM gift_cards WHERE id = $1 FOR UPDATE`,
		selectOne:       `SELECT id, balance, status, updated_at FROM gift_cards WHERE id = $1`,
		update:          `UPDATE gift_cards SET balance = $2, updated_at = $3 WHERE id = $1`,
	},
	domain.HolderRegister: {
		selectForUpdate: `SELECT id, cash_on_hand, status, opened_at FROM cash_registers WHERE id = $1 FOR UPDATE`,
		selectOne:       `SELECT id, cash_on_hand, status, opened_at FROM cash_registers WHERE id = $1`,
		update:          `UPDATE cash_registers SET cash_on_hand = $2 WHERE id = $1`,
	},
	domain.HolderLoyalty: {
		selectForUpdate: `SELECT id, loyalty_points, CASE WHEN is_active THEN 'active' ELSE 'inactive' END, updated_at FROM customers WHERE id = $1 FOR UPDATE`,
		selectOne:       `SELECT id, loyalty_points, CASE WHEN is_active THEN 'active' ELSE 'inactive' END, updated_at FROM customers WHERE id = $1`,
		update:          `UPDATE customers SET loyalty_points = $2, updated_at = $3 WHERE id = $1`,
	},
}

// GetForUpdate locks each holder row in the order the refs are passed. The
// engine has already sorted them into the global lock order; this method
// must not reorder them.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, refs []domain.HolderRef) ([]*domain.Balance, error) {
	querier := q(r.pool, tx)

	balances := make([]*domain.Balance, 0, len(refs))
	for _, ref := range refs {
		queries, ok := holderQueries[ref.Kind]
		if !ok {
			return nil, fmt.Errorf("unknown holder kind %q", ref.Kind)
		}

		balance, err := scanBalance(querier.QueryRow(ctx, queries.selectForUpdate, ref.ID), ref)
		if err != nil {
			if isNoRows(err) {
				// Engine compares row count against ref count and maps the
				// shortfall to domain.ErrHolderNotFound.
				continue
			}
			return nil, err
		}
		balances = append(balances, balance)
	}

	return balances, nil
}

// Get reads one holder's balance without locking it.
func (r *BalanceRepository) Get(ctx context.Context, ref domain.HolderRef) (*domain.Balance, error) {
	queries, ok := holderQueries[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown holder kind %q", ref.Kind)
	}

	balance, err := scanBalance(r.pool.QueryRow(ctx, queries.selectOne, ref.ID), ref)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrHolderNotFound
		}
		return nil, err
	}
	return balance, nil
}

// UpdateBalance writes the new balance for one holder.
func (r *BalanceRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, ref domain.HolderRef, balance decimal.Decimal, updatedAt time.Time) error {
	queries, ok := holderQueries[ref.Kind]
	if !ok {
		return fmt.Errorf("unknown holder kind %q", ref.Kind)
	}

	querier := q(r.pool, tx)
	var err error
	if ref.Kind == domain.HolderRegister {
		// Register rows keep their open/close timestamps; cash_on_hand is
		// the only engine-written column.
		_, err = querier.Exec(ctx, queries.update, ref.ID, decimalToNumeric(balance))
	} else {
		_, err = querier.Exec(ctx, queries.update, ref.ID, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt))
	}
	return err
}

func scanBalance(row interface{ Scan(dest ...any) error }, ref domain.HolderRef) (*domain.Balance, error) {
	var (
		id        string
		amount    pgtype.Numeric
		status    string
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &amount, &status, &updatedAt); err != nil {
		return nil, err
	}
	return &domain.Balance{
		Ref:       ref,
		Amount:    numericToDecimal(amount),
		Status:    status,
		UpdatedAt: updatedAt.Time,
	}, nil
}
