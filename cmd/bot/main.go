package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cryptochecker/internal/bot"
	"cryptochecker/internal/catalog"
	"cryptochecker/internal/config"
	"cryptochecker/internal/logging"
	"cryptochecker/internal/pricing"
	"cryptochecker/internal/provider/ratelimit"
	"cryptochecker/internal/warmup"
)

var errNoToken = errors.New("telegram token is not set (BOT_TOKEN)")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Telegram.Token == "" {
		return errNoToken
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	prices, err := pricing.NewFromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	store := catalog.Open(cfg.Catalog.Path, log)

	sched, err := warmup.Schedule(cfg.Catalog.WarmupSchedule, warmup.NewJob(prices, store, 0, log))
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.Info("authorized", zap.String("username", api.Self.UserName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	limiter := ratelimit.NewKeyed(cfg.Telegram.PerChatRate, cfg.Telegram.PerChatBurst)
	b := bot.New(api, prices, store, limiter, log)
	log.Info("bot started", zap.Int("catalog_size", len(store.List())))
	b.Run(ctx, updates)
	log.Info("bot stopped")
	return nil
}
