package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// ReturnRepository implements usecase.ReturnRepository.
type ReturnRepository struct {
	pool *pgxpool.Pool
}

// NewReturnRepository creates a new ReturnRepository.
func NewReturnRepository(pool *pgxpool.Pool) *ReturnRepository {
	return &ReturnRepository{pool: pool}
}

const returnColumns = `id, sale_id, refund_amount, refund_method, reason, processed_by, created_at`

// Create inserts the return and its lines within the caller's transaction.
func (r *ReturnRepository) Create(ctx context.Context, tx usecase.Transaction, ret *domain.Return) error {
	querier := q(r.pool, tx)

	query := `
		INSERT INTO returns (` + returnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := querier.Exec(ctx, query,
		ret.ID,
		ret.SaleID,
		decimalToNumeric(ret.RefundAmount),
		string(ret.RefundMethod),
		ret.Reason,
		ret.ProcessedBy,
		timeToPgTimestamptz(ret.CreatedAt),
	)
	if err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO return_lines (id, return_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, line := range ret.Lines {
		_, err := querier.Exec(ctx, lineQuery,
			line.ID,
			ret.ID,
			line.ProductID,
			decimalToNumeric(line.Quantity),
			decimalToNumeric(line.UnitPrice),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves one return with its lines.
func (r *ReturnRepository) GetByID(ctx context.Context, id string) (*domain.Return, error) {
	query := `SELECT ` + returnColumns + ` FROM returns WHERE id = $1`
	ret, err := scanReturn(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, err
	}

	if err := r.loadLines(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// ListBySale retrieves all returns against one sale, oldest first.
func (r *ReturnRepository) ListBySale(ctx context.Context, saleID string) ([]*domain.Return, error) {
	query := `
		SELECT ` + returnColumns + `
		FROM returns
		WHERE sale_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var returns []*domain.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, ret := range returns {
		if err := r.loadLines(ctx, ret); err != nil {
			return nil, err
		}
	}
	return returns, nil
}

// ReturnedQuantities returns quantity already returned per product for one
// sale, read within the given transaction.
func (r *ReturnRepository) ReturnedQuantities(ctx context.Context, tx usecase.Transaction, saleID string) (map[string]decimal.Decimal, error) {
	query := `
		SELECT rl.product_id, SUM(rl.quantity)
		FROM return_lines rl
		JOIN returns ret ON ret.id = rl.return_id
		WHERE ret.sale_id = $1
		GROUP BY rl.product_id
	`
	rows, err := q(r.pool, tx).Query(ctx, query, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quantities := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			productID string
			quantity  pgtype.Numeric
		)
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, err
		}
		quantities[productID] = numericToDecimal(quantity)
	}
	return quantities, rows.Err()
}

// HasReturns reports whether any return exists for the sale.
func (r *ReturnRepository) HasReturns(ctx context.Context, tx usecase.Transaction, saleID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM returns WHERE sale_id = $1)`
	var exists bool
	if err := q(r.pool, tx).QueryRow(ctx, query, saleID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReturnRepository) loadLines(ctx context.Context, ret *domain.Return) error {
	query := `
		SELECT id, return_id, product_id, quantity, unit_price
		FROM return_lines
		WHERE return_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, ret.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line      domain.ReturnLine
			quantity  pgtype.Numeric
			unitPrice pgtype.Numeric
		)
		if err := rows.Scan(&line.ID, &line.ReturnID, &line.ProductID, &quantity, &unitPrice); err != nil {
			return err
		}
		line.Quantity = numericToDecimal(quantity)
		line.UnitPrice = numericToDecimal(unitPrice)
		ret.Lines = append(ret.Lines, line)
	}
	return rows.Err()
}

func scanReturn(row interface{ Scan(dest ...any) error }) (*domain.Return, error) {
	var (
		ret          domain.Return
		refundAmount pgtype.Numeric
		refundMethod string
		createdAt    pgtype.Timestamptz
	)
	err := row.Scan(
		&ret.ID,
		&ret.SaleID,
		&refundAmount,
		&refundMethod,
		&ret.Reason,
		&ret.ProcessedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	ret.RefundAmount = numericToDecimal(refundAmount)
	ret.RefundMethod = domain.RefundMethod(refundMethod)
	ret.CreatedAt = createdAt.Time
	return &ret, nil
}
