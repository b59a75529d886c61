package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// AdjustmentRepository implements usecase.AdjustmentRepository.
type AdjustmentRepository struct {
	pool *pgxpool.Pool
}

// NewAdjustmentRepository creates a new AdjustmentRepository.
func NewAdjustmentRepository(pool *pgxpool.Pool) *AdjustmentRepository {
	return &AdjustmentRepository{pool: pool}
}

// Create inserts one adjustment within the caller's transaction.
func (r *AdjustmentRepository) Create(ctx context.Context, tx usecase.Transaction, adjustment *domain.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (id, product_id, location_id, kind, quantity, reason, adjusted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q(r.pool, tx).Exec(ctx, query,
		adjustment.ID,
		adjustment.ProductID,
		adjustment.LocationID,
		string(adjustment.Kind),
		decimalToNumeric(adjustment.Quantity),
		adjustment.Reason,
		adjustment.AdjustedBy,
		timeToPgTimestamptz(adjustment.CreatedAt),
	)
	return err
}

// List retrieves adjustments, optionally filtered by product, newest first.
func (r *AdjustmentRepository) List(ctx context.Context, productID string, limit, offset int) ([]*domain.StockAdjustment, error) {
	query := `
		SELECT id, product_id, location_id, kind, quantity, reason, adjusted_by, created_at
		FROM stock_adjustments
		WHERE ($1 = '' OR product_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []*domain.StockAdjustment
	for rows.Next() {
		var (
			adjustment domain.StockAdjustment
			kind       string
			quantity   pgtype.Numeric
			createdAt  pgtype.Timestamptz
		)
		err := rows.Scan(
			&adjustment.ID,
			&adjustment.ProductID,
			&adjustment.LocationID,
			&kind,
			&quantity,
			&adjustment.Reason,
			&adjustment.AdjustedBy,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}
		adjustment.Kind = domain.AdjustmentKind(kind)
		adjustment.Quantity = numericToDecimal(quantity)
		adjustment.CreatedAt = createdAt.Time
		adjustments = append(adjustments, &adjustment)
	}
	return adjustments, rows.Err()
}

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `id, product_id, from_location_id, to_location_id, quantity, status, requested_by, decided_by, note, created_at, decided_at`

// Create inserts a pending transfer request.
func (r *TransferRepository) Create(ctx context.Context, transfer *domain.StockTransfer) error {
	query := `
		INSERT INTO stock_transfers (id, product_id, from_location_id, to_location_id, quantity, status, requested_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		transfer.ID,
		transfer.ProductID,
		transfer.FromLocationID,
		transfer.ToLocationID,
		decimalToNumeric(transfer.Quantity),
		string(transfer.Status),
		transfer.RequestedBy,
		transfer.Note,
		timeToPgTimestamptz(transfer.CreatedAt),
	)
	return err
}

// GetByID retrieves one transfer.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE id = $1`
	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, err
	}
	return transfer, nil
}

// GetByIDForUpdate locks and retrieves one transfer within the caller's
// transaction, so the approve decision can re-check status under lock.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE id = $1 FOR UPDATE`
	transfer, err := scanTransfer(q(r.pool, tx).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, err
	}
	return transfer, nil
}

// Decide writes the terminal status of a pending transfer.
func (r *TransferRepository) Decide(ctx context.Context, tx usecase.Transaction, id string, status domain.TransferStatus, decidedBy string, decidedAt time.Time) error {
	query := `
		UPDATE stock_transfers
		SET status = $2, decided_by = $3, decided_at = $4
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := q(r.pool, tx).Exec(ctx, query, id, string(status), decidedBy, timeToPgTimestamptz(decidedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.PreconditionError("transfer %s is no longer pending", id)
	}
	return nil
}

// List retrieves transfers by status, newest first. An empty status lists
// every transfer.
func (r *TransferRepository) List(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.StockTransfer, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM stock_transfers
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.StockTransfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}

func scanTransfer(row interface{ Scan(dest ...any) error }) (*domain.StockTransfer, error) {
	var (
		transfer  domain.StockTransfer
		quantity  pgtype.Numeric
		status    string
		createdAt pgtype.Timestamptz
		decidedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&transfer.ID,
		&transfer.ProductID,
		&transfer.FromLocationID,
		&transfer.ToLocationID,
		&quantity,
		&status,
		&transfer.RequestedBy,
		&transfer.DecidedBy,
		&transfer.Note,
		&createdAt,
		&decidedAt,
	)
	if err != nil {
		return nil, err
	}
	transfer.Quantity = numericToDecimal(quantity)
	transfer.Status = domain.TransferStatus(status)
	transfer.CreatedAt = createdAt.Time
	transfer.DecidedAt = pgTimestamptzToTimePtr(decidedAt)
	return &transfer, nil
}
