package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/luxemarket/storefront-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger     *logger.Logger
	DB         pinger
	Redis      pinger
	Dispatcher runner
	Metrics    runner
}

// Service runs the outbox mail dispatcher next to the metrics endpoint.
type Service struct {
	logg       *logger.Logger
	db         pinger
	redis      pinger
	dispatcher runner
	metrics    runner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	return &Service{
		logg:       params.Logger,
		db:         params.DB,
		redis:      params.Redis,
		dispatcher: params.Dispatcher,
		metrics:    params.Metrics,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run blocks until ctx is cancelled or a component fails; a failing
// component stops the others.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.dispatcher.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(gctx, "dispatcher stopped unexpectedly", err)
		}
		return err
	})
	if s.metrics != nil {
		g.Go(func() error {
			if err := s.metrics.Run(gctx); err != nil {
				s.logg.Error(gctx, "metrics server stopped unexpectedly", err)
				return err
			}
			return gctx.Err()
		})
	}
	return g.Wait()
}
