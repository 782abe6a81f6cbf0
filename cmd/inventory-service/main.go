package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/matheusmosca/grocery-inventory/internal/config"
	"github.com/matheusmosca/grocery-inventory/internal/httpapi"
	"github.com/matheusmosca/grocery-inventory/internal/inventory"
	"github.com/matheusmosca/grocery-inventory/internal/inventory/memory"
	"github.com/matheusmosca/grocery-inventory/internal/inventory/postgres"
	"github.com/matheusmosca/grocery-inventory/internal/logging"
	"github.com/matheusmosca/grocery-inventory/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	providers := telemetry.Noop(cfg.ServiceName)
	if cfg.OtelEnabled {
		providers, err = telemetry.Setup(ctx, cfg.ServiceName, cfg.OtelEndpoint)
		if err != nil {
			logger.Fatalf("Failed to initialize telemetry: %v", err)
		}
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Error shutting down telemetry: %v", err)
		}
	}()

	// Initialize store
	repository, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}
	defer repository.Close()

	// Initialize dependencies
	catalog := inventory.NewCatalogUseCase(repository, logger, providers.Tracer)
	transactions, err := inventory.NewTransactionUseCase(repository, logger, providers.Tracer, providers.Meter)
	if err != nil {
		logger.Fatalf("Failed to initialize transaction processor: %v", err)
	}
	handler := httpapi.NewInventoryHandler(catalog, transactions, repository, providers.Tracer)

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(handler, logger, cfg.ServiceName)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		logger.Infof("🚀 Inventory Service listening on port %s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to start server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error shutting down server: %v", err)
	}
}

func openRepository(ctx context.Context, cfg config.Config, logger *logrus.Logger) (inventory.Repository, error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewRepository(), nil
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.ConnectAttempts)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Connected to inventory database with connection pool")

	if cfg.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, cfg.DatabaseURL); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return postgres.NewInventoryRepository(pool), nil
}
