package main

import (
	"context"
	"errors"
	"os"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	applog "dompet/internal/log"
	"dompet/internal/notify"
)

// dompet-notify consumes alert messages from AMQP and delivers them
// through a local notifier, holding scheduled reminders until due.
func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentNotify)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for dompet-notify")
		os.Exit(1)
	}
	logger.Info("Starting dompet-notify", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	local := notify.NewLocalNotifier(nil, logger.Slog())
	defer func() { _ = local.CancelAll(context.Background()) }()

	err = client.ConsumeAlerts(ctx, func(ctx context.Context, msg *amqp.AlertMessage) error {
		return msg.Apply(ctx, local)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Alert consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("dompet-notify stopped")
}
