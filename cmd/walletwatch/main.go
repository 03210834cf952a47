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

	"walletwatch/internal/amqp"
	"walletwatch/internal/config"
	"walletwatch/internal/core"
	apphttp "walletwatch/internal/http"
	"walletwatch/internal/log"
	"walletwatch/internal/notify"
	"walletwatch/internal/services"
	"walletwatch/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting walletwatch")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// SMS channel is optional: without credentials alerts are recorded as
	// failed attempts but expense writes keep working.
	var sender notify.Sender
	twilioSender, err := notify.NewTwilioSender(notify.TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioPhoneNumber,
	})
	switch {
	case err == nil:
		sender = twilioSender
		logger.Info("Twilio SMS channel initialized")
	case errors.Is(err, notify.ErrNotConfigured):
		logger.Warn("Twilio not configured - alerts will be logged but not sent")
	default:
		logger.Error("Failed to initialize Twilio client", log.FieldError, err)
		os.Exit(1)
	}

	// Event feed is optional too: empty AMQP_URL disables publishing.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP event feed initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	alerts := services.NewAlertService(repo, sender, cfg.RecipientPhone, publisher, core.SystemClock, logger)
	expenses := services.NewExpenseService(repo, alerts, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, cfg.APIKey, repo, expenses, alerts, core.SystemClock, logger).WithTimeouts()

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

	logger.Info("Starting walletwatch server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
