package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/tillbook/tillbook/internal/domain"
)

// StockRepository implements usecase.StockRepository.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

const stockColumns = `id, product_id, location_id, quantity, updated_at`

// Ensure returns the stock row for (product, location), creating a
// zero-quantity row when none exists yet. The upsert keeps concurrent
// Ensure calls from racing on first touch.
func (r *StockRepository) Ensure(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	query := `
		INSERT INTO stock_levels (id, product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (product_id, location_id) DO UPDATE SET product_id = EXCLUDED.product_id
		RETURNING ` + stockColumns
	stock, err := scanStockLevel(r.pool.QueryRow(ctx, query, ulid.Make().String(), productID, locationID))
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// Get retrieves one stock row.
func (r *StockRepository) Get(ctx context.Context, productID, locationID string) (*domain.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE product_id = $1 AND location_id = $2`
	stock, err := scanStockLevel(r.pool.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrHolderNotFound
		}
		return nil, err
	}
	return stock, nil
}

// GetByID retrieves one stock row by its holder ID.
func (r *StockRepository) GetByID(ctx context.Context, id string) (*domain.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE id = $1`
	stock, err := scanStockLevel(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrHolderNotFound
		}
		return nil, err
	}
	return stock, nil
}

// ListByLocation retrieves a page of stock rows at one location.
func (r *StockRepository) ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]*domain.StockLevel, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_levels
		WHERE location_id = $1
		ORDER BY product_id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, locationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []*domain.StockLevel
	for rows.Next() {
		stock, err := scanStockLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, stock)
	}
	return levels, rows.Err()
}

// LowStock retrieves stock rows at or below their product's minimum level.
// An empty locationID scans every location.
func (r *StockRepository) LowStock(ctx context.Context, locationID string) ([]*domain.StockLevel, error) {
	query := `
		SELECT s.id, s.product_id, s.location_id, s.quantity, s.updated_at
		FROM stock_levels s
		JOIN products p ON p.id = s.product_id
		WHERE p.is_active
		  AND s.quantity <= p.min_stock
		  AND ($1 = '' OR s.location_id = $1)
		ORDER BY s.quantity
	`
	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []*domain.StockLevel
	for rows.Next() {
		stock, err := scanStockLevel(rows)
		if err != nil {
			return nil, err
		}
		levels = append(levels, stock)
	}
	return levels, rows.Err()
}

func scanStockLevel(row interface{ Scan(dest ...any) error }) (*domain.StockLevel, error) {
	var (
		stock     domain.StockLevel
		quantity  pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&stock.ID,
		&stock.ProductID,
		&stock.LocationID,
		&quantity,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	stock.Quantity = numericToDecimal(quantity)
	stock.UpdatedAt = updatedAt.Time
	return &stock, nil
}
