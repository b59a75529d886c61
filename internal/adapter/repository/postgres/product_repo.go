package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/domain"
)

// ProductRepository implements usecase.ProductRepository.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, sku, name, unit_price, min_stock, is_active, created_at, updated_at`

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.SKU,
		product.Name,
		decimalToNumeric(product.UnitPrice),
		decimalToNumeric(product.MinStock),
		product.IsActive,
		timeToPgTimestamptz(product.CreatedAt),
		timeToPgTimestamptz(product.UpdatedAt),
	)
	return err
}

// Update rewrites the mutable product attributes.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, unit_price = $3, min_stock = $4, updated_at = $5
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		product.ID,
		product.Name,
		decimalToNumeric(product.UnitPrice),
		decimalToNumeric(product.MinStock),
		timeToPgTimestamptz(product.UpdatedAt),
	)
	return err
}

// GetByID retrieves one product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// GetBySKU retrieves one product by SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	product, err := scanProduct(r.pool.QueryRow(ctx, query, sku))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// List retrieves a page of products.
func (r *ProductRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = false OR is_active)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// SetActive flips a product's availability.
func (r *ProductRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	query := `UPDATE products SET is_active = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, active, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// CreateLocation inserts a new stock location.
func (r *ProductRepository) CreateLocation(ctx context.Context, location *domain.Location) error {
	query := `INSERT INTO locations (id, name, created_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, location.ID, location.Name, timeToPgTimestamptz(location.CreatedAt))
	return err
}

// GetLocation retrieves one location.
func (r *ProductRepository) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	query := `SELECT id, name, created_at FROM locations WHERE id = $1`
	var (
		location  domain.Location
		createdAt pgtype.Timestamptz
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(&location.ID, &location.Name, &createdAt); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, err
	}
	location.CreatedAt = createdAt.Time
	return &location, nil
}

// ListLocations retrieves all locations.
func (r *ProductRepository) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	query := `SELECT id, name, created_at FROM locations ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		var (
			location  domain.Location
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&location.ID, &location.Name, &createdAt); err != nil {
			return nil, err
		}
		location.CreatedAt = createdAt.Time
		locations = append(locations, &location)
	}
	return locations, rows.Err()
}

func scanProduct(row interface{ Scan(dest ...any) error }) (*domain.Product, error) {
	var (
		product   domain.Product
		unitPrice pgtype.Numeric
		minStock  pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&unitPrice,
		&minStock,
		&product.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.UnitPrice = numericToDecimal(unitPrice)
	product.MinStock = numericToDecimal(minStock)
	product.CreatedAt = createdAt.Time
	product.UpdatedAt = updatedAt.Time
	return &product, nil
}
