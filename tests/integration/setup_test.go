package integration

import (
	"context"
	"net/http"
	"os"
	"testing"

	adaptershttp "github.com/saisuryavinay/financial-ledger-api/internal/adapter/http"
	"github.com/saisuryavinay/financial-ledger-api/internal/adapter/http/handler"
	"github.com/saisuryavinay/financial-ledger-api/internal/adapter/repository/postgres"
	redisrepo "github.com/saisuryavinay/financial-ledger-api/internal/adapter/repository/redis"
	infraredis "github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/redis"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
	"github.com/saisuryavinay/financial-ledger-api/tests/testutil"
)

// newTestRouter wires the full HTTP stack against the test database and a
// real Redis instance.
func newTestRouter(t *testing.T, testDB *testutil.TestDB) http.Handler {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	txManager := postgres.NewTxManager(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)
	idGen := postgres.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(accountRepo, entryRepo, idGen, nil)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, transactionRepo, entryRepo, idGen, nil, nil, nil)
	transactionUC := usecase.NewTransactionUseCase(transactionRepo)
	entryUC := usecase.NewEntryUseCase(accountRepo, entryRepo, nil)
	consistencyUC := usecase.NewConsistencyUseCase(ledgerRepo, nil)

	return adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		MovementHandler:    handler.NewMovementHandler(ledgerUC),
		TransactionHandler: handler.NewTransactionHandler(transactionUC),
		EntryHandler:       handler.NewEntryHandler(entryUC),
		LedgerHandler:      handler.NewLedgerHandler(consistencyUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
	})
}

// newLedgerEngine wires just the transactional engine for direct usecase
// level tests.
func newLedgerEngine(testDB *testutil.TestDB) *usecase.LedgerUseCase {
	pool := testDB.Pool

	return usecase.NewLedgerUseCase(
		postgres.NewTxManager(pool),
		postgres.NewAccountRepository(pool),
		postgres.NewTransactionRepository(pool),
		postgres.NewEntryRepository(pool),
		postgres.NewULIDGenerator(),
		nil,
		nil,
		nil,
	)
}
