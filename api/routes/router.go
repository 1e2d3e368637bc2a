package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luxemarket/storefront-backend/api/controllers"
	"github.com/luxemarket/storefront-backend/api/middleware"
	"github.com/luxemarket/storefront-backend/internal/auth"
	"github.com/luxemarket/storefront-backend/internal/exchange"
	"github.com/luxemarket/storefront-backend/internal/installations"
	"github.com/luxemarket/storefront-backend/internal/orders"
	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/pkg/auth/session"
	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/metrics"
)

// Store backs rate limiting and idempotency; *redis.Client satisfies it.
type Store interface {
	middleware.ResponseStore
	middleware.RateCounter
}

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	DB          controllers.Pinger
	Store       Store
	RedisPinger controllers.Pinger
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics

	Auth          auth.Service
	Products      products.Service
	Cart          controllers.CartService
	Checkout      controllers.CheckoutService
	Orders        orders.Service
	Exchange      exchange.Service
	Installations installations.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	limits := cfg.RateLimit
	loginLimit := middleware.RateLimitRule{Name: "login", Window: limits.LoginWindow, PerIP: limits.LoginIPLimit, PerEmail: limits.LoginEmailLimit}
	registerLimit := middleware.RateLimitRule{Name: "register", Window: limits.RegisterWindow, PerIP: limits.RegisterIPLimit, PerEmail: limits.RegisterEmailLimit}
	orderLimit := middleware.RateLimitRule{Name: "orders", Window: limits.OrderWindow, PerUser: limits.OrderUserLimit}

	store := deps.Store
	idempotent := middleware.Idempotency(store, logg, middleware.ReplayWindow)
	orderIdempotent := middleware.Idempotency(store, logg, middleware.OrderReplayWindow)

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["db"] = deps.DB
	}
	if deps.RedisPinger != nil {
		pingers["redis"] = deps.RedisPinger
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(loginLimit, store, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.RateLimit(registerLimit, store, logg), idempotent).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Get("/me", controllers.AuthMe(deps.Auth, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
			r.Get("/{productId}/related", controllers.ProductRelated(deps.Products, logg))
		})
		r.Post("/exchange/estimate", controllers.ExchangeEstimate(deps.Exchange, logg))
		r.Post("/ups/recommend", controllers.SizingRecommend(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAdd(deps.Cart, logg))
				r.Post("/items/{productId}/decrement", controllers.CartRemove(deps.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartDelete(deps.Cart, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.CheckoutBegin(deps.Checkout, logg))
				r.Get("/", controllers.CheckoutState(deps.Checkout, logg))
				r.Delete("/", controllers.CheckoutCancel(deps.Checkout, logg))
				r.Put("/shipping", controllers.CheckoutShipping(deps.Checkout, logg))
				r.Put("/payment", controllers.CheckoutPayment(deps.Checkout, logg))
				r.Post("/next", controllers.CheckoutAdvance(deps.Checkout, logg))
				r.Post("/back", controllers.CheckoutRetreat(deps.Checkout, logg))
				r.With(middleware.RateLimit(orderLimit, store, logg), orderIdempotent).Post("/submit", controllers.CheckoutSubmit(deps.Checkout, logg))
			})

			r.With(middleware.RateLimit(orderLimit, store, logg), orderIdempotent).Post("/orders", controllers.OrderPlace(deps.Orders, logg))
			r.Get("/orders", controllers.OrdersMine(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))

			r.With(idempotent).Post("/exchange/requests", controllers.ExchangeCreate(deps.Exchange, logg))

			r.With(idempotent).Post("/installations", controllers.InstallationCreate(deps.Installations, logg))
			r.Get("/installations", controllers.InstallationsMine(deps.Installations, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

				r.Post("/products", controllers.AdminProductCreate(deps.Products, logg))
				r.With(idempotent).Patch("/products/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
				r.Delete("/products/{productId}", controllers.AdminProductDelete(deps.Products, logg))

				r.Get("/orders", controllers.AdminOrders(deps.Orders, logg))
				r.With(idempotent).Patch("/orders/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))

				r.Get("/exchange/requests", controllers.AdminExchangeRequests(deps.Exchange, logg))

				r.Get("/installations", controllers.AdminInstallations(deps.Installations, logg))
				r.With(idempotent).Patch("/installations/{installationId}/status", controllers.AdminInstallationStatus(deps.Installations, logg))
			})
		})
	})

	return r
}
