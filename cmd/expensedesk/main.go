package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensedesk/internal/auth"
	"expensedesk/internal/config"
	"expensedesk/internal/core"
	"expensedesk/internal/events"
	apphttp "expensedesk/internal/http"
	applog "expensedesk/internal/log"
	"expensedesk/internal/services"
	"expensedesk/internal/storage"
)

func main() {
	// Load .env for local development; absent files are fine.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.SeedAdmin(context.Background(), core.User{
		Username:     "radha",
		PasswordHash: auth.HashPassword("kalki"),
		Role:         core.RoleAdmin,
	}); err != nil {
		logger.Error("Failed to seed admin account", "error", err)
		os.Exit(1)
	}

	// Event publishing is optional; without a broker every write stays
	// local-only.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP event publishing enabled",
			"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	expenseSvc := services.NewExpenseService(store, publisher)
	authSvc := auth.NewService(store)
	sessions := auth.NewSessionManager(cfg.SessionTTL)
	defer sessions.Close()

	srv := apphttp.NewServer(":"+cfg.Port, expenseSvc, authSvc, sessions)

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
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting expensedesk server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
