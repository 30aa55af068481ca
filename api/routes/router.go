package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/prostore-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/prostore-backend/api/controllers/webhooks"
	"github.com/angelmondragon/prostore-backend/api/middleware"
	"github.com/angelmondragon/prostore-backend/internal/auth"
	"github.com/angelmondragon/prostore-backend/internal/cart"
	"github.com/angelmondragon/prostore-backend/internal/media"
	"github.com/angelmondragon/prostore-backend/internal/orders"
	"github.com/angelmondragon/prostore-backend/internal/payments"
	product "github.com/angelmondragon/prostore-backend/internal/products"
	"github.com/angelmondragon/prostore-backend/internal/reviews"
	"github.com/angelmondragon/prostore-backend/internal/users"
	"github.com/angelmondragon/prostore-backend/pkg/auth/session"
	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/metrics"
	"github.com/angelmondragon/prostore-backend/pkg/redis"
)

// StripeWebhook bundles what the Stripe webhook endpoint needs. Leave the
// fields unset when Stripe is disabled; deliveries then get a dependency
// error.
type StripeWebhook struct {
	Service  webhookcontrollers.StripeWebhookService
	Verifier webhookcontrollers.EventVerifier
	Guard    webhookcontrollers.EventGuard
}

// Params wires the HTTP surface. Services left unset answer with an error
// envelope instead of panicking; never assign a typed nil pointer.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	// Ready lists the dependencies probed by /health/ready.
	Ready          map[string]controllers.Pinger
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth     auth.Service
	Products product.Service
	Reviews  reviews.Service
	Cart     cart.Service
	Users    users.Service
	Orders   orders.Service
	Payments payments.Service
	Media    media.Service
	Stripe   StripeWebhook
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.SessionCart(cfg.Store.SessionCartCookieTTL, cfg.Store.SecureCookies, logg),
		middleware.Authenticate(cfg.JWT, p.Sessions, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	requireAuth := middleware.RequireAuth(logg)

	var (
		limiter middleware.RateLimiter
		replays middleware.ReplayStore
	)
	if p.Redis != nil {
		limiter = p.Redis
		replays = p.Redis
	}
	orderReplay := middleware.Idempotent(replays, middleware.OrderReplayTTL, logg)
	adminReplay := middleware.Idempotent(replays, middleware.AdminReplayTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Ready, logg))
	})
	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(p.Stripe.Service, p.Stripe.Verifier, p.Stripe.Guard, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(p.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/latest", controllers.ProductsLatest(p.Products, logg))
			r.Get("/featured", controllers.ProductsFeatured(p.Products, logg))
			r.Get("/search", controllers.ProductsSearch(p.Products, logg))
			r.Get("/categories", controllers.ProductCategories(p.Products, logg))
			r.Get("/{slug}", controllers.ProductBySlug(p.Products, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.With(requireAuth).Post("/", controllers.ReviewUpsert(p.Reviews, logg))
			r.Get("/{productID}", controllers.ReviewsList(p.Reviews, logg))
			r.With(requireAuth).Get("/{productID}/me", controllers.ReviewMine(p.Reviews, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(p.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(p.Users, logg))
				r.Put("/", controllers.ProfileUpdate(p.Users, logg))
				r.Put("/address", controllers.ProfileAddress(p.Users, logg))
				r.Put("/payment-method", controllers.ProfilePaymentMethod(p.Users, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(orderReplay).Post("/", controllers.OrderPlace(p.Orders, logg))
				r.Get("/", controllers.OrdersMine(p.Orders, logg))
				r.Get("/{orderID}", controllers.OrderGet(p.Orders, logg))
				r.Post("/{orderID}/paypal", controllers.PayPalCreate(p.Payments, logg))
				r.With(orderReplay).Post("/{orderID}/paypal/approve", controllers.PayPalApprove(p.Payments, logg))
				r.Post("/{orderID}/stripe/intent", controllers.StripeIntentCreate(p.Payments, logg))
			})

			r.Post("/uploads", controllers.UploadImage(p.Media, cfg.Media.MaxImageBytes(), logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireAdmin(logg))

			r.Get("/overview", controllers.AdminOverview(p.Orders, logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUsersList(p.Users, logg))
				r.Get("/{userID}", controllers.AdminUserGet(p.Users, logg))
				r.Put("/{userID}", controllers.AdminUserUpdate(p.Users, logg))
				r.Delete("/{userID}", controllers.AdminUserDelete(p.Users, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductsList(p.Products, logg))
				r.With(adminReplay).Post("/", controllers.AdminProductCreate(p.Products, logg))
				r.Get("/export", controllers.AdminProductsExport(p.Products, logg))
				r.Get("/{productID}", controllers.AdminProductGet(p.Products, logg))
				r.Put("/{productID}", controllers.AdminProductUpdate(p.Products, logg))
				r.Delete("/{productID}", controllers.AdminProductDelete(p.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(p.Orders, logg))
				r.With(adminReplay).Post("/{orderID}/pay", controllers.AdminOrderMarkPaid(p.Orders, logg))
				r.With(adminReplay).Post("/{orderID}/deliver", controllers.AdminOrderDeliver(p.Orders, logg))
				r.Delete("/{orderID}", controllers.AdminOrderDelete(p.Orders, logg))
			})
		})
	})

	return r
}
