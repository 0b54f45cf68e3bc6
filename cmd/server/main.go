package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cryptochecker/internal/catalog"
	"cryptochecker/internal/config"
	"cryptochecker/internal/logging"
	"cryptochecker/internal/pricing"
	"cryptochecker/internal/warmup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
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

	sched, err := warmup.Schedule(cfg.Catalog.WarmupSchedule, warmup.NewJob(prices, store, cfg.Server.RequestTimeout, log))
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: newRouter(&api{
			looker:      prices,
			catalog:     store,
			concurrency: cfg.Pricing.BatchConcurrency,
			timeout:     cfg.Server.RequestTimeout,
			log:         log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
