package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const auditColumns = `id, actor_id, actor_name, action, entity_type, entity_id, details, ip_address, request_id, created_at`

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.create(ctx, q(r.pool, nil), log)
}

// CreateTx inserts a new audit log entry within the caller's transaction
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.create(ctx, q(r.pool, tx), log)
}

func (r *AuditRepository) create(ctx context.Context, querier querier, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var detailsJSON []byte
	if log.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(log.Details)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := querier.Exec(ctx, query,
		log.ID,
		log.ActorID,
		log.ActorName,
		log.Action,
		log.EntityType,
		log.EntityID,
		detailsJSON,
		log.IPAddress,
		log.RequestID,
		timeToPgTimestamptz(log.CreatedAt),
	)
	return err
}

// List retrieves audit logs with filtering
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE ($1 = '' OR actor_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR entity_type = $3)
		  AND ($4 = '' OR entity_id = $4)
		  AND ($5::timestamptz IS NULL OR created_at >= $5)
		  AND ($6::timestamptz IS NULL OR created_at < $6)
		ORDER BY created_at DESC
		LIMIT $7 OFFSET $8
	`
	rows, err := r.pool.Query(ctx, query,
		filter.ActorID,
		filter.Action,
		filter.EntityType,
		filter.EntityID,
		timePtrToPgTimestamptz(filter.StartDate),
		timePtrToPgTimestamptz(filter.EndDate),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log         domain.AuditLog
			detailsJSON []byte
			createdAt   pgtype.Timestamptz
		)
		err := rows.Scan(
			&log.ID,
			&log.ActorID,
			&log.ActorName,
			&log.Action,
			&log.EntityType,
			&log.EntityID,
			&detailsJSON,
			&log.IPAddress,
			&log.RequestID,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}
		if detailsJSON != nil {
			_ = json.Unmarshal(detailsJSON, &log.Details)
		}
		log.CreatedAt = createdAt.Time
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
