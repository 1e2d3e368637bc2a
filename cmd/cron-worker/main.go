package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxemarket/storefront-backend/internal/bootstrap"
	"github.com/luxemarket/storefront-backend/internal/cron"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/metrics"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
)

const kind = "cron-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := bootstrap.Start(ctx, kind)
	if err != nil {
		bootstrap.Fatal(ctx, logger.New(logger.Options{ServiceName: kind}), "failed to start", err)
	}
	defer proc.Close()

	logg := proc.Logger
	service, err := buildScheduler(proc)
	if err != nil {
		bootstrap.Fatal(ctx, logg, "failed to build cron service", err)
	}

	ctx = proc.Context(ctx, nil)
	logg.Info(ctx, "starting cron worker")
	if err := bootstrap.Run(ctx, service.Run, proc.MetricsTask()); err != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		stop()
		proc.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildScheduler(proc *bootstrap.Process) (*cron.Service, error) {
	cfg := proc.Config

	lock, err := cron.NewRedisLock(proc.Redis, kind, cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        proc.Logger,
		Repository:    outbox.NewRepository(proc.DB.DB()),
		RetentionDays: cfg.Outbox.RetentionDays,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	jobs := cron.NewRegistry()
	if err := jobs.Register(retention); err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   proc.Logger,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
}
