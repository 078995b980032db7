package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Without a spreadsheet the worker still drains the queue, recording
	// events in memory so the broker does not back up in dev setups.
	var exporter export.TransactionExporter
	if cfg.ExportEnabled() {
		sheets, err := export.NewSheetsExporter(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize sheets exporter", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = sheets
		logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = export.NewMemoryExporter()
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewExportWorker(amqpClient, exporter, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := w.Run(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
