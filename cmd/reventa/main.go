package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/reventa-app/reventa/internal/app"
	"github.com/reventa-app/reventa/internal/delivery"
	"github.com/reventa-app/reventa/internal/ledger"
	"github.com/reventa-app/reventa/internal/observability"
	"github.com/reventa-app/reventa/internal/platform/cache"
	"github.com/reventa-app/reventa/internal/platform/db"
	"github.com/reventa-app/reventa/internal/settlement"
	"github.com/reventa-app/reventa/internal/splits"
	"github.com/reventa-app/reventa/internal/stock"
	"github.com/reventa-app/reventa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

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

	metrics := observability.NewMetrics()

	ledgerRepo := ledger.NewRepository(pool)
	balanceCache := ledger.NewBalanceCache(redisClient, cfg.BalanceCacheTTL)
	ledgerService := ledger.NewService(ledgerRepo, balanceCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo)
	stockHandler := stock.NewHandler(logger, stockService)

	deliveryRepo := delivery.NewRepository(pool)
	deliveryService := delivery.NewService(deliveryRepo, ledgerService, logger)
	deliveryService.SetStockKeeper(stockService)
	deliveryHandler := delivery.NewHandler(logger, deliveryService)
	deliveryHandler.SetRecorder(metrics)
	deliveryHandler.SetMovementSource(ledgerService)

	splitsRepo := splits.NewRepository(pool)
	splitsService := splits.NewService(splitsRepo)
	splitsHandler := splits.NewHandler(logger, splitsService)

	settlementRepo := settlement.NewRepository(pool)
	overviewCache := settlement.NewOverviewCache(redisClient, cfg.BalanceCacheTTL)
	settlementService := settlement.NewService(settlementRepo, overviewCache)
	settlementHandler := settlement.NewHandler(logger, settlementService)
	ledgerService.SetOverviewInvalidator(settlementService)
	splitsService.SetOverviewInvalidator(settlementService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		LedgerHandler:     ledgerHandler,
		DeliveryHandler:   deliveryHandler,
		SplitsHandler:     splitsHandler,
		SettlementHandler: settlementHandler,
		StockHandler:      stockHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
