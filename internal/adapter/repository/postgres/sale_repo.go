package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// SaleRepository implements usecase.SaleRepository.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

const saleColumns = `id, customer_id, location_id, register_id, subtotal, discount, net_amount, payment_method, gift_card_code, status, sold_by, created_at`

// Create inserts the sale and its lines within the caller's transaction.
func (r *SaleRepository) Create(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	querier := q(r.pool, tx)

	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := querier.Exec(ctx, query,
		sale.ID,
		sale.CustomerID,
		sale.LocationID,
		sale.RegisterID,
		decimalToNumeric(sale.Subtotal),
		decimalToNumeric(sale.Discount),
		decimalToNumeric(sale.NetAmount),
		string(sale.PaymentMethod),
		sale.GiftCardCode,
		string(sale.Status),
		sale.SoldBy,
		timeToPgTimestamptz(sale.CreatedAt),
	)
	if err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, line := range sale.Lines {
		_, err := querier.Exec(ctx, lineQuery,
			line.ID,
			sale.ID,
			line.ProductID,
			decimalToNumeric(line.Quantity),
			decimalToNumeric(line.UnitPrice),
			decimalToNumeric(line.LineTotal),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves one sale with its lines.
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	sale, err := scanSale(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, err
	}

	if err := r.loadLines(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// List retrieves sales matching the filter, newest first. Lines are not
// loaded for listings.
func (r *SaleRepository) List(ctx context.Context, filter usecase.SaleFilter) ([]*domain.Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR location_id = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.pool.Query(ctx, query,
		filter.CustomerID,
		filter.LocationID,
		timePtrToPgTimestamptz(filter.From),
		timePtrToPgTimestamptz(filter.To),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// UpdateStatus writes a sale's status within the caller's transaction.
func (r *SaleRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.SaleStatus) error {
	query := `UPDATE sales SET status = $2 WHERE id = $1`
	tag, err := q(r.pool, tx).Exec(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

// GetStatusForUpdate reads and locks a sale's status within the caller's
// transaction.
func (r *SaleRepository) GetStatusForUpdate(ctx context.Context, tx usecase.Transaction, id string) (domain.SaleStatus, error) {
	query := `SELECT status FROM sales WHERE id = $1 FOR UPDATE`
	var status string
	if err := q(r.pool, tx).QueryRow(ctx, query, id).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrSaleNotFound
		}
		return "", err
	}
	return domain.SaleStatus(status), nil
}

// SoldQuantities returns quantity sold per product for one sale, read within
// the given transaction.
func (r *SaleRepository) SoldQuantities(ctx context.Context, tx usecase.Transaction, saleID string) (map[string]decimal.Decimal, error) {
	query := `
		SELECT product_id, SUM(quantity)
		FROM sale_lines
		WHERE sale_id = $1
		GROUP BY product_id
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

// Summarize aggregates completed sales over [from, to).
func (r *SaleRepository) Summarize(ctx context.Context, from, to time.Time) (*usecase.SalesSummary, error) {
	summary := &usecase.SalesSummary{
		From:            from,
		To:              to,
		GrossAmount:     decimal.Zero,
		DiscountAmount:  decimal.Zero,
		NetAmount:       decimal.Zero,
		ByPaymentMethod: make(map[domain.PaymentMethod]decimal.Decimal),
	}

	query := `
		SELECT payment_method, COUNT(*),
		       COALESCE(SUM(subtotal), 0), COALESCE(SUM(discount), 0), COALESCE(SUM(net_amount), 0)
		FROM sales
		WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
		GROUP BY payment_method
	`
	rows, err := r.pool.Query(ctx, query, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			method   string
			count    int64
			subtotal pgtype.Numeric
			discount pgtype.Numeric
			net      pgtype.Numeric
		)
		if err := rows.Scan(&method, &count, &subtotal, &discount, &net); err != nil {
			return nil, err
		}
		netAmount := numericToDecimal(net)
		summary.SaleCount += count
		summary.GrossAmount = summary.GrossAmount.Add(numericToDecimal(subtotal))
		summary.DiscountAmount = summary.DiscountAmount.Add(numericToDecimal(discount))
		summary.NetAmount = summary.NetAmount.Add(netAmount)
		summary.ByPaymentMethod[domain.PaymentMethod(method)] = netAmount
	}
	return summary, rows.Err()
}

func (r *SaleRepository) loadLines(ctx context.Context, sale *domain.Sale) error {
	query := `
		SELECT id, sale_id, product_id, quantity, unit_price, line_total
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, sale.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line      domain.SaleLine
			quantity  pgtype.Numeric
			unitPrice pgtype.Numeric
			lineTotal pgtype.Numeric
		)
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &quantity, &unitPrice, &lineTotal); err != nil {
			return err
		}
		line.Quantity = numericToDecimal(quantity)
		line.UnitPrice = numericToDecimal(unitPrice)
		line.LineTotal = numericToDecimal(lineTotal)
		sale.Lines = append(sale.Lines, line)
	}
	return rows.Err()
}

func scanSale(row interface{ Scan(dest ...any) error }) (*domain.Sale, error) {
	var (
		sale          domain.Sale
		subtotal      pgtype.Numeric
		discount      pgtype.Numeric
		netAmount     pgtype.Numeric
		paymentMethod string
		status        string
		createdAt     pgtype.Timestamptz
	)
	err := row.Scan(
		&sale.ID,
		&sale.CustomerID,
		&sale.LocationID,
		&sale.RegisterID,
		&subtotal,
		&discount,
		&netAmount,
		&paymentMethod,
		&sale.GiftCardCode,
		&status,
		&sale.SoldBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	sale.Subtotal = numericToDecimal(subtotal)
	sale.Discount = numericToDecimal(discount)
	sale.NetAmount = numericToDecimal(netAmount)
	sale.PaymentMethod = domain.PaymentMethod(paymentMethod)
	sale.Status = domain.SaleStatus(status)
	sale.CreatedAt = createdAt.Time
	return &sale, nil
}
