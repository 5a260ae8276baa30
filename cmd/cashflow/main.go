package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/backend"
	"cashflow/internal/config"
	apphttp "cashflow/internal/http"
	applog "cashflow/internal/log"
	"cashflow/internal/services"
	"cashflow/internal/users"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "cashflow",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backend.Config{
		Type:                     backend.BackendType(cfg.DataBackend),
		SQLiteDBPath:             cfg.SQLiteDBPath,
		GoogleSpreadsheetID:      cfg.GoogleSpreadsheetID,
		GoogleSheetName:          cfg.GoogleSheetName,
		GoogleCategoriesSheet:    cfg.GoogleCategoriesSheet,
		GoogleServiceAccountFile: cfg.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	// Event publisher (optional)
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			events = nil
		} else {
			defer events.Close()
			logger.Info("Initialized AMQP event publisher",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	userRepo, err := users.NewStaticRepository(nil)
	if err != nil {
		logger.Error("Failed to seed user accounts", "error", err)
		os.Exit(1)
	}

	ledger := services.NewLedgerService(result.Backend, events)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:       ":" + cfg.Port,
		SessionTTL: cfg.SessionTTL,
		UploadDir:  cfg.UploadDir,
	}, ledger, userRepo)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting cashflow server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
