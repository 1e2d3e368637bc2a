package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxemarket/storefront-backend/api/routes"
	"github.com/luxemarket/storefront-backend/internal/auth"
	"github.com/luxemarket/storefront-backend/internal/bootstrap"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/internal/exchange"
	"github.com/luxemarket/storefront-backend/internal/installations"
	"github.com/luxemarket/storefront-backend/internal/orders"
	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/internal/sessions"
	"github.com/luxemarket/storefront-backend/internal/users"
	"github.com/luxemarket/storefront-backend/pkg/auth/session"
	"github.com/luxemarket/storefront-backend/pkg/kv"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/metrics"
	"github.com/luxemarket/storefront-backend/pkg/outbox"
	"github.com/luxemarket/storefront-backend/pkg/security"
)

const kind = "api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := bootstrap.Start(ctx, kind)
	if err != nil {
		bootstrap.Fatal(ctx, logger.New(logger.Options{ServiceName: kind}), "failed to start", err)
	}
	defer proc.Close()

	logg := proc.Logger
	deps, checkoutRegistry, err := buildDependencies(proc)
	if err != nil {
		bootstrap.Fatal(ctx, logg, "failed to wire services", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = proc.Config.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           routes.NewRouter(proc.Config, logg, deps),
	}

	ctx = proc.Context(ctx, map[string]any{"addr": server.Addr})
	logg.Info(ctx, "starting api server")
	err = bootstrap.Run(ctx,
		bootstrap.HTTPServer(server),
		func(ctx context.Context) error {
			checkoutRegistry.Run(ctx)
			return nil
		},
		proc.MetricsTask(),
	)
	if err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		stop()
		proc.Close()
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

// buildDependencies constructs every service the router serves. The
// checkout registry is returned separately because its sweeper runs as
// its own task.
func buildDependencies(proc *bootstrap.Process) (routes.Dependencies, *sessions.CheckoutRegistry, error) {
	cfg, logg, dbClient, redisClient := proc.Config, proc.Logger, proc.DB, proc.Redis
	var none routes.Dependencies

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return none, nil, err
	}
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	authService, err := auth.NewService(auth.ServiceParams{
		DB:        dbClient,
		Users:     users.NewRepository(dbClient.DB()),
		Sessions:  sessionManager,
		Outbox:    outboxService,
		Hasher:    security.NewHasher(cfg.Password),
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	if err != nil {
		return none, nil, err
	}

	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productRepo)
	if err != nil {
		return none, nil, err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(dbClient.DB()),
		Products: productRepo,
		TX:       dbClient,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		return none, nil, err
	}
	exchangeService, err := exchange.NewService(exchange.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		return none, nil, err
	}
	installationService, err := installations.NewService(installations.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		return none, nil, err
	}

	cartService, err := sessions.NewCartService(func(owner string) (kv.Storage, error) {
		return kv.NewRedisStore(redisClient, owner, cfg.Checkout.CartTTL)
	}, productService, checkoutMetrics, logg)
	if err != nil {
		return none, nil, err
	}

	steps := checkout.TwoStep()
	if cfg.Checkout.IncludePayment {
		steps = checkout.ThreeStep()
	}
	checkoutRegistry, err := sessions.NewCheckoutRegistry(cartService, orders.NewCheckoutPlacer(orderService), sessions.CheckoutOptions{
		Steps:         steps,
		RedirectDelay: cfg.Checkout.RedirectDelay,
		SessionTTL:    cfg.Checkout.SessionTTL,
		Metrics:       checkoutMetrics,
		Logger:        logg,
	})
	if err != nil {
		return none, nil, err
	}

	return routes.Dependencies{
		DB:            dbClient,
		Store:         redisClient,
		RedisPinger:   redisClient,
		Sessions:      sessionManager,
		HTTPMetrics:   metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Auth:          authService,
		Products:      productService,
		Cart:          cartService,
		Checkout:      checkoutRegistry,
		Orders:        orderService,
		Exchange:      exchangeService,
		Installations: installationService,
	}, checkoutRegistry, nil
}
