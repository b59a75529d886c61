package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tillbook/tillbook/internal/domain"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
	"github.com/tillbook/tillbook/internal/usecase"
)

// LowStockScanJob finds stock rows at or below their product's minimum and
// writes one outbox event per affected product so downstream systems can
// reorder.
type LowStockScanJob struct {
	Stock   usecase.StockRepository
	Outbox  usecase.OutboxRepository
	IDGen   usecase.IDGenerator
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(
	stock usecase.StockRepository,
	outbox usecase.OutboxRepository,
	idGen usecase.IDGenerator,
	logger *slog.Logger,
	m *metrics.Metrics,
) *LowStockScanJob {
	return &LowStockScanJob{
		Stock:   stock,
		Outbox:  outbox,
		IDGen:   idGen,
		Logger:  logger,
		Metrics: m,
	}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Stock == nil {
		return errors.New("low stock scan: handler not configured")
	}

	var payload LowStockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := time.Now()
	logger := j.logger()
	if payload.LocationID != "" {
		logger = logger.With(slog.String("location_id", payload.LocationID))
	}
	logger.Info("starting low stock scan")

	levels, err := j.Stock.LowStock(ctx, payload.LocationID)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	if j.Metrics != nil {
		j.Metrics.LowStockProducts.Set(float64(len(levels)))
	}

	for _, level := range levels {
		logger.Warn("product below minimum stock",
			slog.String("product_id", level.ProductID),
			slog.String("location_id", level.LocationID),
			slog.String("quantity", level.Quantity.String()))

		if j.Outbox == nil {
			continue
		}
		event := &domain.OutboxEvent{
			ID:            j.IDGen.Generate(),
			AggregateID:   level.ID,
			AggregateType: domain.AggregateStock,
			EventType:     domain.EventLowStock,
			Payload: map[string]any{
				"product_id":  level.ProductID,
				"location_id": level.LocationID,
				"quantity":    level.Quantity.String(),
			},
			CreatedAt: time.Now(),
		}
		if err := j.Outbox.Create(ctx, nil, event); err != nil {
			logger.Error("failed to record low stock event",
				slog.String("product_id", level.ProductID),
				slog.Any("error", err))
		}
	}

	logger.Info("completed low stock scan",
		slog.Int("low_products", len(levels)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}
