package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetshop/internal/cli"
	"budgetshop/internal/config"
	"budgetshop/internal/event"
	"budgetshop/internal/log"
	"budgetshop/internal/sheets"
	"budgetshop/internal/sheets/google"
	"budgetshop/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the event worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	res := cli.OpenStore(ctx, cfg, logger)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Store cleanup failed", "error", err)
		}
	}()

	writer := sheetWriter(ctx, cfg, logger)

	w := worker.New(res.Store, writer, worker.Config{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	// Drain whatever piled up while the worker was down, then let the
	// periodic sweep cover rows whose events never arrive.
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
	}
	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start export sweep", "error", err)
		os.Exit(1)
	}

	client, err := event.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Worker started",
		"queue", cfg.AMQPQueue,
		"sheets_export", writer != nil,
		"poll_interval", cfg.SyncInterval)

	err = client.Consume(ctx, func(ev *event.ExpenseEvent) error {
		return w.HandleEvent(ctx, ev)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		logger.Error("Worker stop failed", "error", err)
	}
	logger.Info("Worker stopped")
}

// sheetWriter builds the spreadsheet client when export is configured.
// A nil writer keeps the worker useful for budget alerts alone.
func sheetWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) sheets.ExpenseWriter {
	if !cfg.SheetsEnabled() {
		logger.Info("Sheets export not configured, expense rows stay pending")
		return nil
	}

	client, err := google.New(ctx, google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetBase:       cfg.GoogleSheetName,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Sheets client", "error", err)
		os.Exit(1)
	}

	logger.Info("Sheets export enabled",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client
}
