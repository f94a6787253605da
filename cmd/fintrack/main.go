package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/currency"
	"fintrack/internal/forecast"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	currencySvc := currency.NewService(cfg.ExchangeAPIURL, cfg.ExchangeAPIKey, cfg.BaseCurrency, cfg.RateCacheTTL, nil)

	// Keep the rate cache warm in the background. A failed refresh is
	// logged and retried on the next tick; conversion falls back to the
	// static table in the meantime.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RateRefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := currencySvc.Refresh(ctx); err != nil {
			logger.Warn("Scheduled rate refresh failed", log.FieldError, err)
		}
	}); err != nil {
		logger.Error("Invalid rate refresh schedule", log.FieldError, err, "spec", cfg.RateRefreshSpec)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// AMQP is optional: without a broker expenses are still stored, the
	// backup queue just stays on sync_status=pending until the worker
	// sweeps it.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without event publishing", log.FieldError, err)
		} else {
			publisher = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, nil)
	authSvc := auth.NewService(repo, tokens, logger)
	expenseSvc := services.NewExpenseService(repo, currencySvc, publisher, logger)
	analyticsSvc := analytics.NewService(repo, nil)
	forecastEng := forecast.NewEngine(analyticsSvc, nil)

	srv := apphttp.NewServer(":"+cfg.Port, authSvc, expenseSvc, analyticsSvc, forecastEng,
		currencySvc, cfg.DefaultMonthlyIncome, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting fintrack server", "port", cfg.Port, "base_currency", cfg.BaseCurrency)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
	}
	logger.Info("Server stopped gracefully")
}
