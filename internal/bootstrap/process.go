// Package bootstrap is the boot sequence shared by the api, worker and
// cron-worker binaries: env, config, logger, database, Redis, and the
// task group each process runs until it is signalled.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/db"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/metrics"
	"github.com/luxemarket/storefront-backend/pkg/migrate"
	"github.com/luxemarket/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

// Task is one long-running component. It returns when ctx is done.
type Task func(ctx context.Context) error

type Process struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client
	Redis  *redis.Client

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Start brings up everything a storefront process depends on. On failure
// whatever was already opened is closed again.
func Start(ctx context.Context, kind string) (*Process, error) {
	boot := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		boot.Warn(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	p := &Process{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}
	if err := p.open(ctx); err != nil {
		return nil, multierr.Append(err, p.Close())
	}
	return p, nil
}

func (p *Process) open(ctx context.Context) error {
	var err error
	if p.DB, err = db.New(ctx, p.Config.DB, p.Logger); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	p.OnClose("database", p.DB.Close)

	if err := migrate.MaybeRunDev(ctx, p.Config, p.Logger, p.DB); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	if p.Redis, err = redis.New(ctx, p.Config.Redis, p.Logger); err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	p.OnClose("redis", p.Redis.Close)
	return nil
}

// OnClose registers fn to run from Close, in reverse registration order.
func (p *Process) OnClose(name string, fn func() error) {
	p.closers = append(p.closers, namedCloser{name: name, close: fn})
}

func (p *Process) Close() error {
	var errs error
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.close(); err != nil {
			p.Logger.Error(context.Background(), "error closing "+c.name, err)
			errs = multierr.Append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	p.closers = nil
	return errs
}

// Context tags ctx with the fields every line from this process carries.
func (p *Process) Context(ctx context.Context, extra map[string]any) context.Context {
	fields := map[string]any{"env": p.Config.App.Env, "serviceKind": p.Kind}
	for k, v := range extra {
		fields[k] = v
	}
	return p.Logger.WithFields(ctx, fields)
}

// MetricsTask serves /metrics on the configured address.
func (p *Process) MetricsTask() Task {
	return metrics.NewServer(p.Config.Metrics.Addr, prometheus.DefaultGatherer).Run
}

// Fatal logs err and exits non-zero.
func Fatal(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

// Run starts every task and waits. The first failure cancels the rest;
// cancellation of ctx itself is a clean stop and returns nil.
func Run(ctx context.Context, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// HTTPServer serves srv until ctx is done, then drains it.
func HTTPServer(srv *http.Server) Task {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			err := srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errCh <- err
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(drainCtx); err != nil {
				return err
			}
			return <-errCh
		}
	}
}
