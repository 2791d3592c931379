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

	"centavo/internal/amqp"
	"centavo/internal/auth"
	"centavo/internal/config"
	apphttp "centavo/internal/http"
	applog "centavo/internal/log"
	"centavo/internal/services"
	"centavo/internal/storage"
)

func main() {
	// .env is for local development; in containers the environment is
	// already populated.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.Production())

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	authSvc := auth.NewService(repo, tokens, logger)

	// Publishing is best-effort: without a broker the worker's polling
	// loop still picks up pending rows.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to poll-only sync", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	expenseSvc := services.NewExpenseService(repo, publisher)
	defer expenseSvc.Close()

	srv, err := apphttp.NewServer(cfg, authSvc, expenseSvc)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("starting centavo server", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
