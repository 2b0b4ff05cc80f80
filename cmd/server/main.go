package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/parking-rent/internal/api"
	"github.com/Spok95/parking-rent/internal/config"
	"github.com/Spok95/parking-rent/internal/domain/contractors"
	"github.com/Spok95/parking-rent/internal/domain/payments"
	"github.com/Spok95/parking-rent/internal/infra/checkout"
	"github.com/Spok95/parking-rent/internal/infra/db"
	httpx "github.com/Spok95/parking-rent/internal/infra/http"
	"github.com/Spok95/parking-rent/internal/infra/logger"
	"github.com/Spok95/parking-rent/internal/infra/notify"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	contractorRepo := contractors.NewRepo(pool)
	paymentRepo := payments.NewRepo(pool)
	contractorSvc := contractors.NewService(contractorRepo, cfg.Billing.MinMonthlyFee, time.Now)

	checkoutSvc := checkout.NewService(contractorSvc, checkout.Config{
		SecretKey:   cfg.Stripe.SecretKey,
		Currency:    cfg.Stripe.Currency,
		FrontendURL: cfg.Stripe.FrontendURL,
		MaxMonths:   cfg.Billing.MaxMonths,
	}, log)

	var notifier checkout.Notifier
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			log.Error("telegram init failed, notifications disabled", "err", err)
		} else {
			notifier = tg
			log.Info("telegram notifications enabled", "chat_id", cfg.Telegram.AdminChatID)
		}
	}

	webhookHandler := checkout.NewWebhookHandler(log, contractorSvc, paymentRepo,
		notifier, cfg.Stripe.WebhookSecret, cfg.Stripe.FrontendURL, time.Now)

	apiHandler := api.New(log, contractorSvc, checkoutSvc, paymentRepo, time.Now)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, apiHandler, webhookHandler)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
