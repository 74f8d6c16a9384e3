package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/servis30/golang_services/internal/ledger_service/adapters/cache"
	httpadapter "github.com/servis30/golang_services/internal/ledger_service/adapters/http"
	"github.com/servis30/golang_services/internal/ledger_service/adapters/notifier"
	"github.com/servis30/golang_services/internal/ledger_service/app"
	"github.com/servis30/golang_services/internal/ledger_service/repository/postgres"
	"github.com/servis30/golang_services/internal/platform/clock"
	"github.com/servis30/golang_services/internal/platform/config"
	"github.com/servis30/golang_services/internal/platform/database"
	"github.com/servis30/golang_services/internal/platform/logger"
	"github.com/servis30/golang_services/internal/platform/messagebroker"
)

const (
	serviceName     = "ledger-service"
	shutdownTimeout = 15 * time.Second
	accessTokenTTL  = 24 * time.Hour
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel, cfg.LogFile).With("service", serviceName)
	appLogger.Info("Ledger service starting...",
		"http_port", cfg.LedgerHTTPPort,
		"metrics_port", cfg.LedgerMetricsPort,
		"log_level", cfg.LogLevel,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, cfg.PostgresMaxConns, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := database.RunMigrations(mainCtx, dbPool, appLogger); err != nil {
		appLogger.Error("Failed to apply schema migrations", "error", err)
		os.Exit(1)
	}

	accountRepo := postgres.NewPgAccountRepository(appLogger)
	orderRepo := postgres.NewPgOrderRepository(appLogger)
	txnRepo := postgres.NewPgTransactionRepository(appLogger)
	catalogRepo := postgres.NewPgCatalogRepository(appLogger)
	settingsRepo := postgres.NewPgSettingsRepository(appLogger)
	intentRepo := postgres.NewPgRechargeIntentRepository(appLogger)

	defaults := app.PricingDefaults{
		LegacyFixedServiceKey: cfg.LegacyFixedServiceKey,
		DiscountPercent:       decimal.NewFromFloat(cfg.DefaultDiscountPercent),
		FixedPrice:            decimal.NewFromFloat(cfg.DefaultFixedPrice),
	}

	// Catalog reads go through Redis when it is configured.
	var catalogReader app.CatalogReader = app.NewStoreCatalogReader(dbPool, catalogRepo)
	var invalidator app.CatalogInvalidator
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(mainCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			appLogger.Warn("Redis unavailable, serving catalog from PostgreSQL", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisClient.Close()
			catalogCache := cache.NewCatalogCache(redisClient, catalogReader, cfg.CatalogCacheTTL, appLogger)
			catalogReader = catalogCache
			invalidator = catalogCache
			appLogger.Info("Catalog cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CatalogCacheTTL)
		}
	}

	catalogApp := app.NewCatalogService(dbPool, catalogRepo, settingsRepo, invalidator, defaults, appLogger)
	if err := catalogApp.EnsureDefaults(mainCtx); err != nil {
		appLogger.Error("Failed to seed pricing settings", "error", err)
		os.Exit(1)
	}

	var sinks []notifier.Sink
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
		if err != nil {
			appLogger.Warn("NATS unavailable, order events will not be streamed", "error", err)
		} else {
			defer natsClient.Close()
			sinks = append(sinks, notifier.NewNATSSink(natsClient, cfg.NATSOrderSubject, cfg.NATSRechargeSubject))
		}
	}
	if cfg.OrdersTelegramBotToken != "" && cfg.OrdersTelegramChatID != 0 {
		tgSink, err := notifier.NewTelegramSink(cfg.OrdersTelegramBotToken, cfg.OrdersTelegramChatID, notifier.DefaultSinkTimeout)
		if err != nil {
			appLogger.Warn("Telegram sink disabled", "error", err)
		} else {
			sinks = append(sinks, tgSink)
		}
	}
	if len(sinks) == 0 {
		appLogger.Warn("No notification sinks configured; events will be discarded")
	}
	dispatcher := notifier.NewDispatcher(cfg.NotifierQueueSize, notifier.DefaultSinkTimeout, appLogger, sinks...)

	pricing := app.NewPricingResolver(catalogReader, catalogApp, defaults, appLogger)
	ledgerApp := app.NewLedgerService(dbPool, accountRepo, orderRepo, txnRepo, pricing, dispatcher, appLogger)
	rechargeApp := app.NewRechargeService(
		dbPool,
		accountRepo,
		intentRepo,
		dispatcher,
		clock.RealClock{},
		app.MinimumsFromConfig(cfg.RechargeMinYape, cfg.RechargeMinEfectivo, cfg.RechargeMinUSDT),
		cfg.RechargeIntentTTL,
		appLogger,
	)
	accountApp := app.NewAccountService(dbPool, accountRepo, appLogger)
	reconciler := app.NewReconciler(dbPool, txnRepo, cfg.ReconciliationSchedule, appLogger)

	if cfg.BotAPIKey == "" {
		appLogger.Warn("BOT_API_KEY is empty; bot routes will reject every request")
	}
	jwtAuth := httpadapter.NewJWTAuth(cfg.JWTAccessSecret, accessTokenTTL)
	handler := httpadapter.NewHandler(ledgerApp, rechargeApp, catalogApp, accountApp, jwtAuth, appLogger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.LedgerHTTPPort),
		Handler:      httpadapter.NewRouter(handler, cfg.BotAPIKey, appLogger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.LedgerMetricsPort),
		Handler: metricsMux,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP API server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("HTTP API server shut down gracefully.")
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics HTTP server ListenAndServe error", "error", err)
			return err
		}
		appLogger.Info("Metrics HTTP server shut down gracefully.")
		return nil
	})

	// The notifier outlives groupCtx so events from in-flight requests are
	// still delivered; the shutdown goroutine closes it.
	g.Go(func() error {
		return dispatcher.Run(context.WithoutCancel(groupCtx))
	})

	g.Go(func() error {
		return reconciler.Start(groupCtx)
	})

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
			return nil
		case <-groupCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of servers...")

		shutdownCtx, cancelShutdownTimeout := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdownTimeout()

		var shutdownErrors error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("HTTP API server graceful shutdown failed", "error", err)
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("api http shutdown: %w", err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics HTTP server graceful shutdown failed", "error", err)
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("metrics http shutdown: %w", err))
		}
		// Requests are drained; flush whatever events are still queued.
		dispatcher.Close()
		return shutdownErrors
	})

	appLogger.Info("Ledger service is ready and running.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error during run/shutdown", "error", err)
	}
	appLogger.Info("Ledger service shut down successfully.")
}
