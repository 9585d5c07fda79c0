package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/insights"
	applog "fintrack/internal/log"
	"fintrack/internal/mail"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/services"
)

func main() {
	help := flag.Bool("help", false, "print the supported environment variables and exit")
	flag.Parse()
	if *help {
		fmt.Println(config.Usage())
		return
	}

	if err := run(context.Background()); err != nil {
		cli.Fatal("fintrack stopped with error", err)
	}
}

// run starts the API and, when configured, the alert scheduler. It returns
// once parent is cancelled or a shutdown signal arrives, after every
// resource it opened has been released.
func run(parent context.Context) error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	if cfg.UsesDevSecret() {
		logger.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}

	ctx, stop := cli.ShutdownContext(parent, logger.Logger)
	defer stop()

	store, closeStore, err := cli.InitStore(ctx, cfg, logger.WithComponent(applog.ComponentBackend).Logger)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer closeStore()

	var processor *services.AlertProcessor
	switch {
	case cfg.AlertSchedule == "":
		logger.Info("Budget alert scheduler disabled")
	case cfg.AMQPURL == "":
		logger.Info("Budget alert scheduler disabled, AMQP_URL not set")
	default:
		broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer broker.Close()
		processor = services.NewAlertProcessor(store, broker)
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.ResetTokenTTL)
	mailer := mail.New(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger.WithComponent(applog.ComponentMail).Logger)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:              cfg.Addr(),
		MaxBodyBytes:      cfg.MaxBodyBytes,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimit: ratelimit.Config{
			Requests: cfg.RateLimitRequests,
			Window:   cfg.RateLimitWindow,
		},
		TrustedProxies: cfg.TrustedProxies,
		RequireAuth:    cfg.RequireAuth,
	}, apphttp.Dependencies{
		Budgets:      services.NewBudgetService(store),
		Transactions: services.NewTransactionService(store),
		Auth:         services.NewAuthService(store, auth.NewHasher(bcrypt.DefaultCost), tokens, mailer),
		Tokens:       tokens,
		Insights:     insights.NewClient(cfg.InsightsURL, cfg.InsightsTimeout),
		Store:        store,
	})
	if err != nil {
		return fmt.Errorf("configure HTTP server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if processor != nil {
		g.Go(func() error {
			return processor.Run(gctx, cfg.AlertSchedule)
		})
	}

	logger.Info("Starting fintrack",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		"require_auth", cfg.RequireAuth)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("fintrack stopped gracefully")
	return nil
}
