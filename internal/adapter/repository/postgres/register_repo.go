package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// RegisterRepository implements usecase.RegisterRepository. The partial
// unique index uniq_open_register makes a second concurrent open fail at
// commit even if both requests passed the application-level check.
type RegisterRepository struct {
	pool *pgxpool.Pool
}

// NewRegisterRepository creates a new RegisterRepository.
func NewRegisterRepository(pool *pgxpool.Pool) *RegisterRepository {
	return &RegisterRepository{pool: pool}
}

const registerColumns = `id, location_id, status, opening_balance, cash_on_hand, cash_sales_total, total_cash_in, total_cash_out, closing_balance, expected_balance, difference, opened_by, closed_by, opened_at, closed_at`

// totalColumns lists the columns AddToTotal may touch. Anything else is a
// programming error, not user input.
var totalColumns = map[string]bool{
	"cash_sales_total": true,
	"total_cash_in":    true,
	"total_cash_out":   true,
}

// Create inserts a new register session.
func (r *RegisterRepository) Create(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error {
	query := `
		INSERT INTO cash_registers (
			id, location_id, status, opening_balance, cash_on_hand,
			cash_sales_total, total_cash_in, total_cash_out,
			closing_balance, expected_balance, difference,
			opened_by, opened_at
		) VALUES ($1, $2, $3, $4, $5, 0, 0, 0, 0, 0, 0, $6, $7)
	`
	_, err := q(r.pool, tx).Exec(ctx, query,
		register.ID,
		register.LocationID,
		string(register.Status),
		decimalToNumeric(register.OpeningBalance),
		decimalToNumeric(register.CashOnHand),
		register.OpenedBy,
		timeToPgTimestamptz(register.OpenedAt),
	)
	return err
}

// GetByID retrieves one register session.
func (r *RegisterRepository) GetByID(ctx context.Context, id string) (*domain.CashRegister, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers WHERE id = $1`
	register, err := scanRegister(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRegisterNotFound
		}
		return nil, err
	}
	return register, nil
}

// GetByIDForUpdate locks and retrieves one register session.
func (r *RegisterRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.CashRegister, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers WHERE id = $1 FOR UPDATE`
	register, err := scanRegister(q(r.pool, tx).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRegisterNotFound
		}
		return nil, err
	}
	return register, nil
}

// GetOpen retrieves the open register session, if any.
func (r *RegisterRepository) GetOpen(ctx context.Context) (*domain.CashRegister, error) {
	query := `SELECT ` + registerColumns + ` FROM cash_registers WHERE status = 'open'`
	register, err := scanRegister(r.pool.QueryRow(ctx, query))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRegisterNotFound
		}
		return nil, err
	}
	return register, nil
}

// AddToTotal accumulates into one of the session's kind totals within the
// caller's transaction.
func (r *RegisterRepository) AddToTotal(ctx context.Context, tx usecase.Transaction, id, column string, amount decimal.Decimal) error {
	if !totalColumns[column] {
		return fmt.Errorf("not a register total column: %q", column)
	}
	query := `UPDATE cash_registers SET ` + column + ` = ` + column + ` + $2 WHERE id = $1`
	tag, err := q(r.pool, tx).Exec(ctx, query, id, decimalToNumeric(amount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRegisterNotFound
	}
	return nil
}

// Close writes the closing snapshot of a session.
func (r *RegisterRepository) Close(ctx context.Context, tx usecase.Transaction, register *domain.CashRegister) error {
	query := `
		UPDATE cash_registers
		SET status = $2, closing_balance = $3, expected_balance = $4,
		    difference = $5, closed_by = $6, closed_at = $7
		WHERE id = $1 AND status = 'open'
	`
	tag, err := q(r.pool, tx).Exec(ctx, query,
		register.ID,
		string(register.Status),
		decimalToNumeric(register.ClosingBalance),
		decimalToNumeric(register.ExpectedBalance),
		decimalToNumeric(register.Difference),
		register.ClosedBy,
		timePtrToPgTimestamptz(register.ClosedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.PreconditionError("register %s is already closed", register.ID)
	}
	return nil
}

// CreateMovement inserts one manual cash movement.
func (r *RegisterRepository) CreateMovement(ctx context.Context, tx usecase.Transaction, movement *domain.CashMovement) error {
	query := `
		INSERT INTO cash_movements (id, register_id, kind, amount, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q(r.pool, tx).Exec(ctx, query,
		movement.ID,
		movement.RegisterID,
		string(movement.Kind),
		decimalToNumeric(movement.Amount),
		movement.Reason,
		movement.ActorID,
		timeToPgTimestamptz(movement.CreatedAt),
	)
	return err
}

// ListMovements retrieves a session's manual movements, oldest first.
func (r *RegisterRepository) ListMovements(ctx context.Context, registerID string) ([]*domain.CashMovement, error) {
	query := `
		SELECT id, register_id, kind, amount, reason, actor_id, created_at
		FROM cash_movements
		WHERE register_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, registerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*domain.CashMovement
	for rows.Next() {
		var (
			movement  domain.CashMovement
			kind      string
			amount    pgtype.Numeric
			createdAt pgtype.Timestamptz
		)
		err := rows.Scan(
			&movement.ID,
			&movement.RegisterID,
			&kind,
			&amount,
			&movement.Reason,
			&movement.ActorID,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}
		movement.Kind = domain.MovementKind(kind)
		movement.Amount = numericToDecimal(amount)
		movement.CreatedAt = createdAt.Time
		movements = append(movements, &movement)
	}
	return movements, rows.Err()
}

// History retrieves past sessions, most recently opened first.
func (r *RegisterRepository) History(ctx context.Context, limit, offset int) ([]*domain.CashRegister, error) {
	query := `
		SELECT ` + registerColumns + `
		FROM cash_registers
		ORDER BY opened_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var registers []*domain.CashRegister
	for rows.Next() {
		register, err := scanRegister(rows)
		if err != nil {
			return nil, err
		}
		registers = append(registers, register)
	}
	return registers, rows.Err()
}

func scanRegister(row interface{ Scan(dest ...any) error }) (*domain.CashRegister, error) {
	var (
		register        domain.CashRegister
		status          string
		openingBalance  pgtype.Numeric
		cashOnHand      pgtype.Numeric
		cashSalesTotal  pgtype.Numeric
		totalCashIn     pgtype.Numeric
		totalCashOut    pgtype.Numeric
		closingBalance  pgtype.Numeric
		expectedBalance pgtype.Numeric
		difference      pgtype.Numeric
		openedAt        pgtype.Timestamptz
		closedAt        pgtype.Timestamptz
	)
	err := row.Scan(
		&register.ID,
		&register.LocationID,
		&status,
		&openingBalance,
		&cashOnHand,
		&cashSalesTotal,
		&totalCashIn,
		&totalCashOut,
		&closingBalance,
		&expectedBalance,
		&difference,
		&register.OpenedBy,
		&register.ClosedBy,
		&openedAt,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}
	register.Status = domain.RegisterStatus(status)
	register.OpeningBalance = numericToDecimal(openingBalance)
	register.CashOnHand = numericToDecimal(cashOnHand)
	register.CashSalesTotal = numericToDecimal(cashSalesTotal)
	register.TotalCashIn = numericToDecimal(totalCashIn)
	register.TotalCashOut = numericToDecimal(totalCashOut)
	register.ClosingBalance = numericToDecimal(closingBalance)
	register.ExpectedBalance = numericToDecimal(expectedBalance)
	register.Difference = numericToDecimal(difference)
	register.OpenedAt = openedAt.Time
	register.ClosedAt = pgTimestamptzToTimePtr(closedAt)
	return &register, nil
}
