package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/spendtrack/spendtrack/internal/accounts"
	"github.com/spendtrack/spendtrack/internal/app"
	"github.com/spendtrack/spendtrack/internal/auth"
	"github.com/spendtrack/spendtrack/internal/categories"
	"github.com/spendtrack/spendtrack/internal/ingest"
	"github.com/spendtrack/spendtrack/internal/ledger"
	"github.com/spendtrack/spendtrack/internal/platform/cache"
	"github.com/spendtrack/spendtrack/internal/platform/db"
	"github.com/spendtrack/spendtrack/internal/proposals"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	accountRepo := accounts.NewRepository(pool)
	accountService := accounts.NewService(accountRepo)
	accountHandler := accounts.NewHandler(logger, accountService)

	categoryRepo := categories.NewRepository(pool)
	categoryService := categories.NewService(categoryRepo)
	categoryHandler := categories.NewHandler(logger, categoryService)

	// The ledger writer depends on the global fallback category. Refuse to
	// start without it rather than failing on the first write.
	def, err := categoryRepo.FindGlobalByName(ctx, categories.DefaultName)
	if err != nil {
		logger.Error("lookup default category", slog.Any("error", err))
		os.Exit(1)
	}
	if def == nil {
		logger.Error("default category missing, run scripts/seed", slog.String("name", categories.DefaultName))
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	proposalRepo := proposals.NewRepository(pool)
	proposalService := proposals.NewService(proposalRepo)
	proposalHandler := proposals.NewHandler(logger, proposalService)

	gateway := ingest.NewGateway(proposalRepo)
	ingestHandler := ingest.NewHandler(logger, gateway)

	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenStore, auth.ProvisionerFunc(
		func(ctx context.Context, userID int64) error {
			_, err := accountService.CreateDefault(ctx, userID)
			return err
		}))
	authHandler := auth.NewHandler(logger, authService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		TokenStore:      tokenStore,
		AuthHandler:     authHandler,
		IngestHandler:   ingestHandler,
		ProposalHandler: proposalHandler,
		LedgerHandler:   ledgerHandler,
		AccountHandler:  accountHandler,
		CategoryHandler: categoryHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.KafkaEnabled {
		consumer := ingest.NewConsumer(logger, gateway, ingest.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		})
		group.Go(func() error {
			logger.Info("starting signal consumer", slog.String("topic", cfg.KafkaTopic))
			return consumer.Run(groupCtx)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}
