package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/cli"
	"tracker/internal/config"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/notify"
	"tracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)

	bus, err := newBus(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect notification bus", "error", err)
		_ = store.Cleanup()
		os.Exit(1)
	}

	svc := services.NewEntryService(store.Store, bus, services.Options{SummaryTTL: cfg.SummaryCacheTTL})
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Service close error", "error", err)
		}
	}()

	caches := cache.NewManager()
	if c := svc.SummaryCache(); c != nil {
		caches.Register(c)
		caches.StartCleanup(time.Minute)
	}
	defer caches.Stop()

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:             logger,
		CORSAllowOrigin:    cfg.CORSAllowOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to build server", "error", err)
		os.Exit(1)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"amqp_enabled", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := svc.WatchInvalidations(gctx)
		if err != nil && gctx.Err() == nil {
			logger.Warn("Summary invalidation watcher stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// newBus connects to AMQP when configured, otherwise notifications stay in
// this process.
func newBus(ctx context.Context, cfg *config.Config) (notify.Bus, error) {
	if cfg.AMQPURL == "" {
		return notify.NewBroker(cfg.NotifyTopic, cfg.NotifyBuffer), nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	// An empty queue name gives this instance its own exclusive queue.
	client, err := amqp.DialWithRetry(dialCtx, cfg.AMQPURL, cfg.AMQPExchange, "")
	if err != nil {
		return nil, err
	}
	return notify.NewAMQPBus(client, cfg.NotifyTopic, origin(), cfg.NotifyBuffer), nil
}

func origin() string {
	host, err := os.Hostname()
	if err != nil {
		host = "tracker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
