package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxemarket/storefront-backend/internal/bootstrap"
	"github.com/luxemarket/storefront-backend/internal/notifications"
	"github.com/luxemarket/storefront-backend/internal/users"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/mailer"
	"github.com/luxemarket/storefront-backend/pkg/metrics"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/outbox/idempotency"
	"github.com/luxemarket/storefront-backend/pkg/outbox/registry"
)

const kind = "worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := bootstrap.Start(ctx, kind)
	if err != nil {
		bootstrap.Fatal(ctx, logger.New(logger.Options{ServiceName: kind}), "failed to start", err)
	}
	defer proc.Close()

	logg := proc.Logger
	dispatcher, err := buildDispatcher(proc)
	if err != nil {
		bootstrap.Fatal(ctx, logg, "failed to build dispatcher", err)
	}
	service, err := NewService(ServiceParams{
		Logger:     logg,
		DB:         proc.DB,
		Redis:      proc.Redis,
		Dispatcher: dispatcher,
		Metrics:    metrics.NewServer(proc.Config.Metrics.Addr, prometheus.DefaultGatherer),
	})
	if err != nil {
		bootstrap.Fatal(ctx, logg, "failed to create worker", err)
	}

	ctx = proc.Context(ctx, nil)
	logg.Info(ctx, "starting worker")
	if err := bootstrap.Run(ctx, service.Run); err != nil {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		stop()
		proc.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

// buildDispatcher wires the outbox relay to the SMTP sender.
func buildDispatcher(proc *bootstrap.Process) (*notifications.Dispatcher, error) {
	cfg := proc.Config

	sender, err := mailer.FromConfig(cfg.Mail, proc.Logger)
	if err != nil {
		return nil, err
	}
	guard, err := idempotency.NewGuard(proc.Redis, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	router, err := notifications.NewRouter(users.NewRepository(proc.DB.DB()), cfg.Mail.AdminAddress)
	if err != nil {
		return nil, err
	}
	return notifications.NewDispatcher(notifications.DispatcherParams{
		Config:     cfg.Outbox,
		Logger:     proc.Logger,
		Repository: outbox.NewRepository(proc.DB.DB()),
		Registry:   registry.NewEventRegistry(),
		Router:     router,
		Sender:     sender,
		Guard:      guard,
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
}
