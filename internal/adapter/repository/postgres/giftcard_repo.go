package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// GiftCardRepository implements usecase.GiftCardRepository. The balance
// column is written only by the mutation engine through BalanceRepository;
// this repository owns the card document and its status.
type GiftCardRepository struct {
	pool *pgxpool.Pool
}

// NewGiftCardRepository creates a new GiftCardRepository.
func NewGiftCardRepository(pool *pgxpool.Pool) *GiftCardRepository {
	return &GiftCardRepository{pool: pool}
}

const giftCardColumns = `id, code, balance, status, expires_at, issued_to, created_at, updated_at`

// Create inserts a new card.
func (r *GiftCardRepository) Create(ctx context.Context, tx usecase.Transaction, card *domain.GiftCard) error {
	query := `
		INSERT INTO gift_cards (` + giftCardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q(r.pool, tx).Exec(ctx, query,
		card.ID,
		card.Code,
		decimalToNumeric(card.Balance),
		string(card.Status),
		timePtrToPgTimestamptz(card.ExpiresAt),
		card.IssuedTo,
		timeToPgTimestamptz(card.CreatedAt),
		timeToPgTimestamptz(card.UpdatedAt),
	)
	return err
}

// GetByCode retrieves one card by its code.
func (r *GiftCardRepository) GetByCode(ctx context.Context, code string) (*domain.GiftCard, error) {
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards WHERE code = $1`
	card, err := scanGiftCard(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrGiftCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// GetByID retrieves one card.
func (r *GiftCardRepository) GetByID(ctx context.Context, id string) (*domain.GiftCard, error) {
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards WHERE id = $1`
	card, err := scanGiftCard(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrGiftCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// UpdateStatus writes a card's lifecycle status.
func (r *GiftCardRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.GiftCardStatus, updatedAt time.Time) error {
	query := `UPDATE gift_cards SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := q(r.pool, tx).Exec(ctx, query, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGiftCardNotFound
	}
	return nil
}

// List retrieves a page of cards, newest first.
func (r *GiftCardRepository) List(ctx context.Context, limit, offset int) ([]*domain.GiftCard, error) {
	query := `
		SELECT ` + giftCardColumns + `
		FROM gift_cards
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*domain.GiftCard
	for rows.Next() {
		card, err := scanGiftCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func scanGiftCard(row interface{ Scan(dest ...any) error }) (*domain.GiftCard, error) {
	var (
		card      domain.GiftCard
		balance   pgtype.Numeric
		status    string
		expiresAt pgtype.Timestamptz
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&card.ID,
		&card.Code,
		&balance,
		&status,
		&expiresAt,
		&card.IssuedTo,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	card.Balance = numericToDecimal(balance)
	card.Status = domain.GiftCardStatus(status)
	card.ExpiresAt = pgTimestamptzToTimePtr(expiresAt)
	card.CreatedAt = createdAt.Time
	card.UpdatedAt = updatedAt.Time
	return &card, nil
}
