package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/client"
	"tracker/internal/config"
	applog "tracker/internal/log"
	"tracker/internal/notify"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/worker"
)

// apiEvents adapts the API's websocket stream to notify.Subscriber.
type apiEvents struct {
	*client.Client
}

func (a apiEvents) Subscribe(ctx context.Context) (<-chan notify.Event, error) {
	return a.Events(ctx)
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting tracker-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	// A memory store lives inside the API process, so the worker reads
	// through the API instead.
	var source worker.Source
	var events notify.Subscriber
	if backend.BackendType(cfg.DataBackend).Shared() {
		res := cli.InitBackend(ctx, logger, cfg)
		defer res.Cleanup()
		source = res.Store
	} else {
		api, err := client.New(cfg.APIURL)
		if err != nil {
			logger.Error("Invalid API URL", "error", err)
			os.Exit(1)
		}
		source = api
		events = apiEvents{api}
		logger.Info("Reading entries through the API", "api_url", cfg.APIURL)
	}

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		bus := notify.NewAMQPBus(amqpClient, cfg.NotifyTopic, "tracker-worker", cfg.NotifyBuffer)
		defer bus.Close()
		events = bus
		logger.Info("Consuming change notifications",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	}

	syncWorker := worker.NewSyncWorker(source, sheetsClient, worker.Options{
		Events:   events,
		Interval: cfg.SyncInterval,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncWorker.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	syncs, failures := syncWorker.Stats()
	logger.Info("Worker shutdown complete", "syncs", syncs, "failures", failures)
}
