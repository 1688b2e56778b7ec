package main

import (
	"context"
	"fmt"
	"log/slog"

	"rafflepay/config"
	"rafflepay/internal/adapters/btcpay"
	"rafflepay/internal/adapters/email"
	"rafflepay/internal/adapters/telegram"
	"rafflepay/internal/domain"
	"rafflepay/internal/events"
	"rafflepay/internal/repository/memory"
	"rafflepay/internal/repository/postgres"
	"rafflepay/internal/services"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      domain.Storage
	hub        *events.Hub
	ledger     domain.TicketLedger
	raffles    domain.RaffleService
	reconciler domain.WebhookReconciler
	scheduler  *services.Scheduler
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	hub := events.NewHub(logger.With("component", "events"))
	gateway := btcpay.NewClient(btcpay.Config{
		BaseURL:     cfg.BTCPay.URL,
		StoreID:     cfg.BTCPay.StoreID,
		APIKey:      cfg.BTCPay.APIKey,
		Currency:    cfg.BTCPay.Currency,
		RedirectURL: cfg.BTCPay.RedirectURL,
		Logger:      logger.With("component", "btcpay"),
	})
	ledger := services.NewTicketLedger(store, logger.With("component", "ledger"))
	selector := services.NewWinnerSelector(store, logger.With("component", "winner"))
	raffles := services.NewRaffleService(store, ledger, gateway, selector, notifier, hub,
		logger.With("component", "raffles"), cfg.RequestTimeout)
	reconciler := services.NewWebhookReconciler(ledger, cfg.BTCPay.WebhookSecret, hub,
		logger.With("component", "webhook"))

	sweep := services.DefaultSchedulerConfig()
	sweep.Interval = cfg.Sweep.Interval
	sweep.PendingTTL = cfg.Sweep.PendingTTL
	scheduler := services.NewScheduler(store, ledger, gateway, raffles, hub, sweep,
		logger.With("component", "scheduler"))

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		hub:        hub,
		ledger:     ledger,
		raffles:    raffles,
		reconciler: reconciler,
		scheduler:  scheduler,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data is lost on exit")
		return memory.New(), nil
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// newNotifier always emails the winner and also announces to the admin chat when
// a Telegram token is configured.
func newNotifier(cfg *config.Config, logger *slog.Logger) (domain.Notifier, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.AWSInsecureSkipVerify,
		},
		Logger: logger.With("component", "mailer"),
	})
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	notifiers := services.MultiNotifier{
		services.NewEmailNotifier(mailer, email.NewTemplateRenderer(), logger.With("component", "notifier")),
	}
	if cfg.Telegram.Token != "" {
		tg, err := telegram.NewNotifier(cfg.Telegram.Token, cfg.Telegram.AdminChatID, logger.With("component", "telegram"))
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}
