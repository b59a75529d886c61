package integration

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tillbook/tillbook/internal/adapter/repository/postgres"
	"github.com/tillbook/tillbook/internal/usecase"
)

// env bundles the repositories and use cases the integration tests share.
type env struct {
	pool *pgxpool.Pool

	balances  *postgres.BalanceRepository
	ledger    *postgres.LedgerRepository
	outbox    *postgres.OutboxRepository
	audit     *postgres.AuditRepository
	registers *postgres.RegisterRepository
	giftCards *postgres.GiftCardRepository
	stocks    *postgres.StockRepository

	engine      *usecase.MutationEngine
	giftCardUC  *usecase.GiftCardUseCase
	registerUC  *usecase.RegisterUseCase
	inventoryUC *usecase.InventoryUseCase
}

func newEnv(pool *pgxpool.Pool) *env {
	e := &env{
		pool:      pool,
		balances:  postgres.NewBalanceRepository(pool),
		ledger:    postgres.NewLedgerRepository(pool),
		outbox:    postgres.NewOutboxRepository(pool),
		audit:     postgres.NewAuditRepository(pool),
		registers: postgres.NewRegisterRepository(pool),
		giftCards: postgres.NewGiftCardRepository(pool),
		stocks:    postgres.NewStockRepository(pool),
	}

	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()

	e.engine = usecase.NewMutationEngine(
		txManager, e.balances, e.ledger, e.outbox, e.audit,
		idGen, retrier, usecase.AuditBestEffort, zerolog.Nop(),
	)

	e.giftCardUC = usecase.NewGiftCardUseCase(e.engine, e.giftCards, idGen, e.audit, zerolog.Nop())
	e.registerUC = usecase.NewRegisterUseCase(e.engine, e.registers, txManager, idGen, e.audit, e.outbox, nil)
	e.inventoryUC = usecase.NewInventoryUseCase(
		e.engine,
		postgres.NewProductRepository(pool),
		e.stocks,
		postgres.NewAdjustmentRepository(pool),
		postgres.NewTransferRepository(pool),
		postgres.NewSupplierRepository(pool),
		postgres.NewPurchaseRepository(pool),
		idGen, nil,
	)

	return e
}
