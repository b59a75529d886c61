package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// SupplierRepository implements usecase.SupplierRepository.
type SupplierRepository struct {
	pool *pgxpool.Pool
}

// NewSupplierRepository creates a new SupplierRepository.
func NewSupplierRepository(pool *pgxpool.Pool) *SupplierRepository {
	return &SupplierRepository{pool: pool}
}

const supplierColumns = `id, name, email, phone, is_active, created_at, updated_at`

// Create inserts a new supplier.
func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (` + supplierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Email,
		supplier.Phone,
		supplier.IsActive,
		timeToPgTimestamptz(supplier.CreatedAt),
		timeToPgTimestamptz(supplier.UpdatedAt),
	)
	return err
}

// Update rewrites supplier contact details.
func (r *SupplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $2, email = $3, phone = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		supplier.ID,
		supplier.Name,
		supplier.Email,
		supplier.Phone,
		timeToPgTimestamptz(supplier.UpdatedAt),
	)
	return err
}

// GetByID retrieves one supplier.
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`
	supplier, err := scanSupplier(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrSupplierNotFound
		}
		return nil, err
	}
	return supplier, nil
}

// List retrieves a page of suppliers.
func (r *SupplierRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Supplier, error) {
	query := `
		SELECT ` + supplierColumns + `
		FROM suppliers
		WHERE ($1 = false OR is_active)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

// SetActive flips a supplier's availability.
func (r *SupplierRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	query := `UPDATE suppliers SET is_active = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, active, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSupplierNotFound
	}
	return nil
}

func scanSupplier(row interface{ Scan(dest ...any) error }) (*domain.Supplier, error) {
	var (
		supplier  domain.Supplier
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&supplier.ID,
		&supplier.Name,
		&supplier.Email,
		&supplier.Phone,
		&supplier.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	supplier.CreatedAt = createdAt.Time
	supplier.UpdatedAt = updatedAt.Time
	return &supplier, nil
}

// PurchaseRepository implements usecase.PurchaseRepository.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository creates a new PurchaseRepository.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

const purchaseColumns = `id, supplier_id, location_id, total, received_by, created_at`

// Create inserts the purchase and its lines within the caller's transaction.
func (r *PurchaseRepository) Create(ctx context.Context, tx usecase.Transaction, purchase *domain.Purchase) error {
	querier := q(r.pool, tx)

	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := querier.Exec(ctx, query,
		purchase.ID,
		purchase.SupplierID,
		purchase.LocationID,
		decimalToNumeric(purchase.Total),
		purchase.ReceivedBy,
		timeToPgTimestamptz(purchase.CreatedAt),
	)
	if err != nil {
		return err
	}

	lineQuery := `
		INSERT INTO purchase_lines (id, purchase_id, product_id, quantity, unit_cost)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, line := range purchase.Lines {
		_, err := querier.Exec(ctx, lineQuery,
			line.ID,
			purchase.ID,
			line.ProductID,
			decimalToNumeric(line.Quantity),
			decimalToNumeric(line.UnitCost),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves one purchase with its lines.
func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	purchase, err := scanPurchase(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}

	if err := r.loadLines(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// List retrieves purchases, optionally filtered by supplier, newest first.
// Lines are not loaded for listings.
func (r *PurchaseRepository) List(ctx context.Context, supplierID string, limit, offset int) ([]*domain.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE ($1 = '' OR supplier_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, supplierID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []*domain.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, purchase)
	}
	return purchases, rows.Err()
}

func (r *PurchaseRepository) loadLines(ctx context.Context, purchase *domain.Purchase) error {
	query := `
		SELECT id, purchase_id, product_id, quantity, unit_cost
		FROM purchase_lines
		WHERE purchase_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, purchase.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line     domain.PurchaseLine
			quantity pgtype.Numeric
			unitCost pgtype.Numeric
		)
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.ProductID, &quantity, &unitCost); err != nil {
			return err
		}
		line.Quantity = numericToDecimal(quantity)
		line.UnitCost = numericToDecimal(unitCost)
		purchase.Lines = append(purchase.Lines, line)
	}
	return rows.Err()
}

func scanPurchase(row interface{ Scan(dest ...any) error }) (*domain.Purchase, error) {
	var (
		purchase  domain.Purchase
		total     pgtype.Numeric
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(
		&purchase.ID,
		&purchase.SupplierID,
		&purchase.LocationID,
		&total,
		&purchase.ReceivedBy,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	purchase.Total = numericToDecimal(total)
	purchase.CreatedAt = createdAt.Time
	return &purchase, nil
}
