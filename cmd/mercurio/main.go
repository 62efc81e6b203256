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

	"github.com/mercurio-erp/mercurio-erp/internal/analytics"
	"github.com/mercurio-erp/mercurio-erp/internal/app"
	"github.com/mercurio-erp/mercurio-erp/internal/balance"
	"github.com/mercurio-erp/mercurio-erp/internal/billing"
	"github.com/mercurio-erp/mercurio-erp/internal/catalog"
	"github.com/mercurio-erp/mercurio-erp/internal/customers"
	"github.com/mercurio-erp/mercurio-erp/internal/expenses"
	"github.com/mercurio-erp/mercurio-erp/internal/notifications"
	"github.com/mercurio-erp/mercurio-erp/internal/observability"
	"github.com/mercurio-erp/mercurio-erp/internal/owners"
	"github.com/mercurio-erp/mercurio-erp/internal/platform/cache"
	"github.com/mercurio-erp/mercurio-erp/internal/platform/db"
	"github.com/mercurio-erp/mercurio-erp/internal/purchases"
	"github.com/mercurio-erp/mercurio-erp/internal/sales"
	"github.com/mercurio-erp/mercurio-erp/internal/shared"
	"github.com/mercurio-erp/mercurio-erp/internal/suppliers"
	"github.com/mercurio-erp/mercurio-erp/jobs"
)

func main() {
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	audit := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	ownersService := owners.NewService(owners.NewRepository(pool), audit)
	customersService := customers.NewService(customers.NewRepository(pool), audit)
	suppliersService := suppliers.NewService(suppliers.NewRepository(pool), audit)
	catalogService := catalog.NewService(catalog.NewRepository(pool), audit)
	purchasesService := purchases.NewService(purchases.NewRepository(pool), idempotency, audit, nil, cfg.LocalUTCOffset)
	salesService := sales.NewService(sales.NewRepository(pool), idempotency, audit, nil, cfg.LocalUTCOffset)
	expensesService := expenses.NewService(expenses.NewRepository(pool), audit, nil, cfg.LocalUTCOffset)
	billingService := billing.NewService(billing.NewRepository(pool), audit, nil, cfg.LocalUTCOffset)
	balanceService := balance.NewService(balance.NewRepository(pool))
	notificationsService := notifications.NewService(notifications.NewRepository(pool), nil)

	dashboardCache := analytics.NewCache(redisClient, cfg.DashboardCacheTTL)
	analyticsService := analytics.NewService(analytics.NewRepository(pool), dashboardCache, cfg.LocalUTCOffset)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		OwnersHandler:        owners.NewHandler(logger, ownersService),
		CustomersHandler:     customers.NewHandler(logger, customersService),
		SuppliersHandler:     suppliers.NewHandler(logger, suppliersService),
		CatalogHandler:       catalog.NewHandler(logger, catalogService),
		PurchasesHandler:     purchases.NewHandler(logger, purchasesService),
		SalesHandler:         sales.NewHandler(logger, salesService),
		ExpensesHandler:      expenses.NewHandler(logger, expensesService),
		BillingHandler:       billing.NewHandler(logger, billingService),
		BalanceHandler:       balance.NewHandler(logger, balanceService),
		NotificationsHandler: notifications.NewHandler(logger, notificationsService),
		AnalyticsHandler:     analytics.NewHandler(logger, analyticsService),
		AnalyticsService:     analyticsService,
		JobHandler:           jobs.NewHandler(inspector, logger),
		Metrics:              metrics,
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
