package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/indyhub/exchange-backend/api"
	"github.com/indyhub/exchange-backend/api/routes"
	"github.com/indyhub/exchange-backend/internal/authz"
	"github.com/indyhub/exchange-backend/internal/exchangeconfig"
	"github.com/indyhub/exchange-backend/internal/notifications"
	"github.com/indyhub/exchange-backend/internal/orders"
	"github.com/indyhub/exchange-backend/internal/settlement"
	"github.com/indyhub/exchange-backend/internal/stock"
	"github.com/indyhub/exchange-backend/internal/transactions"
	"github.com/indyhub/exchange-backend/pkg/config"
	"github.com/indyhub/exchange-backend/pkg/db"
	"github.com/indyhub/exchange-backend/pkg/logger"
	"github.com/indyhub/exchange-backend/pkg/metrics"
	"github.com/indyhub/exchange-backend/pkg/migrate"
	"github.com/indyhub/exchange-backend/pkg/outbox"
	"github.com/indyhub/exchange-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	checker, err := authz.NewChecker(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create capability checker", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	configRepo := exchangeconfig.NewRepository(dbClient.DB())
	configSvc, err := exchangeconfig.NewService(configRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create exchange config service", err)
		os.Exit(1)
	}

	stockSvc, err := stock.NewService(stock.NewRepository(dbClient.DB()), dbClient, configSvc, configRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	transactionsRepo := transactions.NewRepository(dbClient.DB())
	transactionsSvc, err := transactions.NewService(transactionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	settlementSvc, err := settlement.NewService(
		transactionsRepo,
		stockSvc,
		outboxSvc,
		metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
		cfg.Exchange.StockAlertThreshold,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		outboxSvc,
		settlementSvc,
		checker,
		configSvc,
		stockSvc,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		checker,
		stockSvc,
		ordersSvc,
		transactionsSvc,
		configSvc,
		notificationsSvc,
	)
	server := api.NewServer(addr, router)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
