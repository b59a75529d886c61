package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	postgresRepo "github.com/tillbook/tillbook/internal/adapter/repository/postgres"
	"github.com/tillbook/tillbook/internal/infrastructure/config"
	"github.com/tillbook/tillbook/internal/infrastructure/logging"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
	"github.com/tillbook/tillbook/internal/infrastructure/outbox"
	"github.com/tillbook/tillbook/internal/infrastructure/postgres"
	"github.com/tillbook/tillbook/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Error("failed to connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("connected to postgres")

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		log.Error("failed to parse redis url", slog.Any("error", err))
		os.Exit(1)
	}
	clientOpt, ok := redisOpt.(asynq.RedisClientOpt)
	if !ok {
		log.Error("unsupported redis connection scheme for the job queue")
		os.Exit(1)
	}

	m := metrics.New()
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	stockRepo := postgresRepo.NewStockRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	publisher := outbox.NewEventPublisher(outbox.Config{
		OutboxRepo: outboxRepo,
		Publisher:  outbox.NewLogPublisher(log.Logger),
		Logger:     log.Logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})

	drainJob := jobs.NewOutboxDrainJob(publisher, log.Logger)
	lowStockJob := jobs.NewLowStockScanJob(stockRepo, outboxRepo, idGen, log.Logger, m)

	lowStockTask, err := jobs.NewLowStockScanTask(jobs.LowStockScanPayload{})
	if err != nil {
		log.Error("failed to build low stock task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   clientOpt,
		Logger:      log.Logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOutboxDrain, Handler: drainJob.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 1m", Task: jobs.NewOutboxDrainTask()},
			{Spec: fmt.Sprintf("@every %s", cfg.LowStockInterval), Task: lowStockTask},
		},
	})
	if err != nil {
		log.Error("failed to build worker", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("worker stopped")
}
