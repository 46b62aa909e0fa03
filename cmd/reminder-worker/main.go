package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"moneta/internal/config"
	"moneta/internal/notify"
	"moneta/internal/schedule"
	"moneta/internal/services"
	"moneta/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting reminder-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional; without it due reminders are only logged.
	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			defer amqpClient.Close()
			notifier = amqpClient
			logger.Info("AMQP client initialized - due reminders will be published")
		}
	} else {
		logger.Info("AMQP disabled - due reminders will only be logged")
	}

	// Wire the scheduler and service together; the fire callback needs the
	// service, the service needs the scheduler.
	var reminderService *services.ReminderService
	scheduler := schedule.NewTickerScheduler(cfg.ReminderPollInterval, func(ctx context.Context, reminderID int64) {
		if err := reminderService.Fire(ctx, reminderID); err != nil {
			logger.Error("Failed to fire reminder", "error", err, "reminder_id", reminderID)
		}
	})
	reminderService = services.NewReminderService(repo, scheduler, notifier)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Re-register active reminders; scheduled tasks do not survive restarts.
	if err := reminderService.RestoreSchedules(ctx); err != nil {
		logger.Error("Failed to restore reminder schedules", "error", err)
	}

	// Catch up on anything that came due while the worker was down.
	logger.Info("Running initial due reminder processing...")
	if count, err := reminderService.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "reminders_fired", count)
	}

	go func() {
		if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Scheduler stopped", "error", err)
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down reminder-worker...")
	cancel()

	// Give the scheduler a moment to finish its current tick
	time.Sleep(2 * time.Second)
	logger.Info("Reminder-worker shutdown complete")
}
