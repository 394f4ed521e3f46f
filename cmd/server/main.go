package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/saisuryavinay/financial-ledger-api/internal/adapter/http"
	"github.com/saisuryavinay/financial-ledger-api/internal/adapter/http/handler"
	"github.com/saisuryavinay/financial-ledger-api/internal/adapter/http/middleware"
	postgresRepo "github.com/saisuryavinay/financial-ledger-api/internal/adapter/repository/postgres"
	redisRepo "github.com/saisuryavinay/financial-ledger-api/internal/adapter/repository/redis"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/config"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/logger"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/metrics"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/postgres"
	"github.com/saisuryavinay/financial-ledger-api/internal/infrastructure/redis"
	"github.com/saisuryavinay/financial-ledger-api/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		PingTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Apply schema migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	// The engine and the balance resolver share one cache so committed
	// movements evict the balances they changed.
	balanceCache := redisRepo.NewCache(redisClient)

	accountUC := usecase.NewAccountUseCase(accountRepo, entryRepo, idGen, appMetrics)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, transactionRepo, entryRepo, idGen, postgresRepo.NewRetrier(log.Logger), balanceCache, appMetrics)
	transactionUC := usecase.NewTransactionUseCase(transactionRepo)
	entryUC := usecase.NewEntryUseCase(accountRepo, entryRepo, balanceCache)
	consistencyUC := usecase.NewConsistencyUseCase(ledgerRepo, appMetrics)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	movementHandler := handler.NewMovementHandler(ledgerUC)
	transactionHandler := handler.NewTransactionHandler(transactionUC)
	entryHandler := handler.NewEntryHandler(entryUC)
	ledgerHandler := handler.NewLedgerHandler(consistencyUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	rateLimiter := middleware.NewRateLimiter(float64(cfg.RateLimitPerSecond), cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			rateLimiter.CleanupLimiters()
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     accountHandler,
		MovementHandler:    movementHandler,
		TransactionHandler: transactionHandler,
		EntryHandler:       entryHandler,
		LedgerHandler:      ledgerHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		RequestLogger:      middleware.NewLoggingMiddleware(log.Logger),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
