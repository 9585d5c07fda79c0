package main

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/mail"
	"fintrack/internal/worker"
)

func main() {
	if err := run(context.Background()); err != nil {
		cli.Fatal("Alert worker stopped with error", err)
	}
}

// run consumes budget alerts until parent is cancelled or a shutdown signal
// arrives.
func run(parent context.Context) error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required")
	}
	if cfg.AlertRecipient == "" {
		logger.Warn("ALERT_RECIPIENT not set, alerts will be acknowledged without mailing")
	}

	ctx, stop := cli.ShutdownContext(parent, logger.Logger)
	defer stop()

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer broker.Close()

	mailer := mail.New(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger.WithComponent(applog.ComponentMail).Logger)
	alertWorker := worker.NewAlertWorker(mailer, cfg.AlertRecipient)

	logger.Info("Starting alert worker", "queue", cfg.AMQPQueue)
	if err := broker.ConsumeBudgetAlerts(ctx, alertWorker.HandleAlertMessage); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume budget alerts: %w", err)
	}
	logger.Info("Alert worker stopped gracefully")
	return nil
}
