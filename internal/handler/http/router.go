package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Services bundles the application services the router dispatches to.
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Reviews  *service.ReviewService
	Carts    *service.CartService
	Orders   *service.OrderService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	CatalogMaxAge  time.Duration
	// AuthRateLimit throttles /auth per client. A zero PerMinute disables it.
	AuthRateLimit middleware.RateLimitConfig
	CORS          middleware.CORSConfig
	PprofEnabled  bool
	PprofCIDRs    []string
}

// NewRouter creates a chi router with every storefront route registered.
func NewRouter(
	svc Services,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	users := NewUserHandler(svc.Users, logger)
	products := NewProductHandler(svc.Products, logger)
	reviews := NewReviewHandler(svc.Reviews, logger)
	carts := NewCartHandler(svc.Carts, logger)
	orders := NewOrderHandler(svc.Orders, logger)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.AuthRateLimit, logger))
		r.Use(ContentTypeJSON)

		r.Post("/signup", users.Signup)
		r.Post("/signin", users.Signin)
	})

	r.Route("/api", func(r chi.Router) {
		// Public catalog reads
		r.Group(func(r chi.Router) {
			if cfg.CatalogMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))
			}

			r.Get("/products", products.ListProducts)
			r.Get("/products/id/{id}", products.GetProduct)
			r.Get("/ratings/product/{productId}", reviews.ProductRatings)
			r.Get("/reviews/product/{productId}", reviews.ProductReviews)
		})

		// Authenticated customer endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))
			r.Use(ContentTypeJSON)

			r.Get("/users/profile", users.Profile)

			r.Get("/cart", carts.GetCart)
			r.Post("/cart", carts.CreateCart)
			r.Put("/cart/add", carts.AddItem)
			r.Put("/cart-items/{id}", carts.UpdateItem)
			r.Delete("/cart-items/{id}", carts.RemoveItem)

			r.Post("/ratings/create", reviews.CreateRating)
			r.Post("/reviews/create", reviews.CreateReview)

			r.Post("/orders", orders.PlaceOrder)
			r.Get("/orders/user", orders.OrderHistory)
			r.Get("/orders/{id}", orders.GetOrder)
		})

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/admin/products/import", products.ImportProducts)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)

				r.Get("/users", users.ListUsers)

				r.Post("/admin/products", products.CreateProduct)
				r.Post("/admin/products/creates", products.CreateProducts)
				r.Put("/admin/products/{id}", products.UpdateProduct)
				r.Delete("/admin/products/{id}", products.DeleteProduct)

				r.Get("/admin/orders", orders.ListOrders)
				r.Put("/admin/orders/status", orders.UpdateOrderStatus)
				r.Get("/admin/orders/{id}", orders.GetOrder)
				r.Put("/admin/orders/{id}/status", orders.UpdateOrderStatusByID)
				r.Delete("/admin/orders/{id}", orders.DeleteOrder)
			})
		})
	})

	return r
}
