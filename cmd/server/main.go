package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/tillbook/tillbook/internal/adapter/http"
	"github.com/tillbook/tillbook/internal/adapter/http/handler"
	"github.com/tillbook/tillbook/internal/adapter/http/middleware"
	postgresRepo "github.com/tillbook/tillbook/internal/adapter/repository/postgres"
	redisRepo "github.com/tillbook/tillbook/internal/adapter/repository/redis"
	"github.com/tillbook/tillbook/internal/infrastructure/auth"
	"github.com/tillbook/tillbook/internal/infrastructure/config"
	"github.com/tillbook/tillbook/internal/infrastructure/logger"
	"github.com/tillbook/tillbook/internal/infrastructure/logging"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
	"github.com/tillbook/tillbook/internal/infrastructure/outbox"
	"github.com/tillbook/tillbook/internal/infrastructure/postgres"
	"github.com/tillbook/tillbook/internal/infrastructure/redis"
	"github.com/tillbook/tillbook/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	productRepo := postgresRepo.NewProductRepository(pool)
	stockRepo := postgresRepo.NewStockRepository(pool)
	giftCardRepo := postgresRepo.NewGiftCardRepository(pool)
	registerRepo := postgresRepo.NewRegisterRepository(pool)
	customerRepo := postgresRepo.NewCustomerRepository(pool)
	saleRepo := postgresRepo.NewSaleRepository(pool)
	returnRepo := postgresRepo.NewReturnRepository(pool)
	adjustmentRepo := postgresRepo.NewAdjustmentRepository(pool)
	transferRepo := postgresRepo.NewTransferRepository(pool)
	supplierRepo := postgresRepo.NewSupplierRepository(pool)
	purchaseRepo := postgresRepo.NewPurchaseRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// The mutation engine carries every balance write in the system.
	engine := usecase.NewMutationEngine(
		txManager, balanceRepo, ledgerRepo, outboxRepo, auditRepo,
		idGen, retrier, usecase.AuditMode(cfg.AuditMode), log,
	)

	// Use cases
	saleUC := usecase.NewSaleUseCase(engine, productRepo, stockRepo, saleRepo, returnRepo, registerRepo, giftCardRepo, customerRepo, idGen, m, cfg.EarnRate())
	returnUC := usecase.NewReturnUseCase(engine, saleRepo, returnRepo, stockRepo, registerRepo, idGen, m)
	giftCardUC := usecase.NewGiftCardUseCase(engine, giftCardRepo, idGen, auditRepo, log)
	registerUC := usecase.NewRegisterUseCase(engine, registerRepo, txManager, idGen, auditRepo, outboxRepo, m)
	inventoryUC := usecase.NewInventoryUseCase(engine, productRepo, stockRepo, adjustmentRepo, transferRepo, supplierRepo, purchaseRepo, idGen, m)
	customerUC := usecase.NewCustomerUseCase(engine, customerRepo, idGen)
	catalogUC := usecase.NewCatalogUseCase(productRepo, idGen, cache)
	supplierUC := usecase.NewSupplierUseCase(supplierRepo, idGen)
	userUC := usecase.NewUserUseCase(userRepo, jwtManager, auditRepo, idGen)
	reportUC := usecase.NewReportUseCase(saleRepo, registerRepo, balanceRepo, ledgerRepo, cache, log)
	auditUC := usecase.NewAuditUseCase(auditRepo)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:      handler.NewAuthHandler(userUC),
		UserHandler:      handler.NewUserHandler(userUC),
		ProductHandler:   handler.NewProductHandler(catalogUC),
		CustomerHandler:  handler.NewCustomerHandler(customerUC),
		SupplierHandler:  handler.NewSupplierHandler(supplierUC),
		SaleHandler:      handler.NewSaleHandler(saleUC, returnUC),
		ReturnHandler:    handler.NewReturnHandler(returnUC),
		GiftCardHandler:  handler.NewGiftCardHandler(giftCardUC),
		RegisterHandler:  handler.NewRegisterHandler(registerUC),
		InventoryHandler: handler.NewInventoryHandler(inventoryUC),
		ReportHandler:    handler.NewReportHandler(reportUC),
		AuditHandler:     handler.NewAuditHandler(auditUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),

		JWTManager:       jwtManager,
		AuthEnabled:      cfg.AuthEnabled && cfg.JWTSecret != "",
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Logger:           log,
		Metrics:          m,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// The outbox publisher polls alongside the HTTP server; the worker binary
	// can additionally trigger drains through the job queue.
	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()
	slogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	publisher := outbox.NewEventPublisher(outbox.Config{
		OutboxRepo: outboxRepo,
		Publisher:  outbox.NewLogPublisher(slogger.Logger),
		Logger:     slogger.Logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
