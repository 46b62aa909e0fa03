package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"moneta/internal/config"
	"moneta/internal/core"
	"moneta/internal/export"
	"moneta/internal/notify"
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

	logger.Info("Starting notify-worker")

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

	amqpClient, err := notify.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reports := services.NewReportingService(repo)
	defer reports.Close()

	// Google Sheets export is optional
	var exporter *export.SheetsExporter
	if cfg.SheetsEnabled() {
		exporter, err = export.NewSheetsExporter(context.Background(),
			cfg.GoogleSpreadsheetID, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	// Consume due-reminder messages and surface them in the log. Delivery
	// channels (mail, push) would hang off this handler.
	g.Go(func() error {
		return amqpClient.ConsumeReminderDue(gctx, func(msg *notify.ReminderDueMessage) error {
			slog.InfoContext(gctx, "Reminder due",
				"reminder_id", msg.ReminderID,
				"name", msg.Name,
				"comment", msg.Comment,
				"due_at", msg.DueAt)
			return nil
		})
	})

	if exporter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.ExportInterval)
			defer ticker.Stop()

			for {
				if err := exportReports(gctx, reports, exporter); err != nil {
					logger.Error("Report export failed", "error", err)
				}
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
				}
			}
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Notify-worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Notify-worker shutdown complete")
}

// exportReports pushes the rolling monthly series and the current month's
// category breakdown across all accounts to the spreadsheet.
func exportReports(ctx context.Context, reports *services.ReportingService, exporter *export.SheetsExporter) error {
	now := time.Now().UTC()

	series, err := reports.MonthlySeries(ctx, core.TotalAccountID, now)
	if err != nil {
		return err
	}
	if err := exporter.ExportMonthlySeries(ctx, series); err != nil {
		return err
	}

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	groups, err := reports.GroupByCategory(ctx, core.TotalAccountID, from, to)
	if err != nil {
		return err
	}
	return exporter.ExportGroupedCategories(ctx, groups)
}
