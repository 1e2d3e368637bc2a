package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/luxemarket/storefront-backend/pkg/logger"
)

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

type blockingRunner struct{ stopped chan struct{} }

func (b *blockingRunner) Run(ctx context.Context) error {
	<-ctx.Done()
	close(b.stopped)
	return ctx.Err()
}

type failingRunner struct{ err error }

func (f failingRunner) Run(context.Context) error { return f.err }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestRunFailsWhenDependencyIsDown(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger:     testLogger(),
		DB:         pingStub{},
		Redis:      pingStub{err: errors.New("connection refused")},
		Dispatcher: failingRunner{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
}

func TestDispatcherFailureStopsMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	metricsRunner := &blockingRunner{stopped: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Logger:     testLogger(),
		DB:         pingStub{},
		Redis:      pingStub{},
		Dispatcher: failingRunner{err: boom},
		Metrics:    metricsRunner,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected dispatcher error, got %v", err)
	}
	select {
	case <-metricsRunner.stopped:
	case <-time.After(time.Second):
		t.Fatalf("metrics runner was not stopped")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	dispatcher := &blockingRunner{stopped: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Logger:     testLogger(),
		DB:         pingStub{},
		Redis:      pingStub{},
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop")
	}
}

func TestNewServiceRequiresDispatcher(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: testLogger(), DB: pingStub{}, Redis: pingStub{}}); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
}
