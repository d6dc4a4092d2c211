package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/alerts"
	"dompet/internal/amqp"
	"dompet/internal/cli"
	"dompet/internal/config"
	apphttp "dompet/internal/http"
	applog "dompet/internal/log"
	"dompet/internal/notify"
	"dompet/internal/services"
	"dompet/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	logger.Info("Starting dompet",
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
		"amqp_enabled", cfg.AMQPURL != "",
		"timezone", cfg.Location().String())

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	repo, store, err := cli.OpenRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	clock := alerts.SystemClock{Location: cfg.Location()}
	ledger := services.NewLedger(repo,
		services.WithClock(clock.Now),
		services.WithLogger(logger.Logger))
	if err := ledger.Init(ctx); err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Dispose(context.Background())

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize notifier", "error", err)
		os.Exit(1)
	}
	defer closeNotifier()

	evaluator := alerts.NewEvaluator(clock)
	alertWorker := worker.NewAlertWorker(ledger, evaluator, notifier, cfg.AlertDedupeTTL, logger.Logger)
	ledger.Subscribe(alertWorker.OnStateChange)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, evaluator, logger, apphttp.Options{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return alertWorker.Run(gctx, cfg.AlertInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("dompet stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("dompet stopped")
}

// newNotifier publishes alerts to AMQP when a broker is configured and
// delivers them in-process otherwise.
func newNotifier(cfg *config.Config, logger *applog.Logger) (notify.Notifier, func(), error) {
	if cfg.AMQPURL == "" {
		local := notify.NewLocalNotifier(nil, logger.WithComponent(applog.ComponentNotify).Slog())
		return local, func() { _ = local.CancelAll(context.Background()) }, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	}, nil
}
