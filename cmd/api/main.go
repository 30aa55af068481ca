package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/prostore-backend/api"
	"github.com/angelmondragon/prostore-backend/api/controllers"
	"github.com/angelmondragon/prostore-backend/api/routes"
	"github.com/angelmondragon/prostore-backend/internal/auth"
	"github.com/angelmondragon/prostore-backend/internal/cart"
	"github.com/angelmondragon/prostore-backend/internal/media"
	"github.com/angelmondragon/prostore-backend/internal/orders"
	"github.com/angelmondragon/prostore-backend/internal/payments"
	product "github.com/angelmondragon/prostore-backend/internal/products"
	"github.com/angelmondragon/prostore-backend/internal/reviews"
	"github.com/angelmondragon/prostore-backend/internal/users"
	stripewebhook "github.com/angelmondragon/prostore-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/prostore-backend/pkg/auth/session"
	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/db"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/metrics"
	"github.com/angelmondragon/prostore-backend/pkg/migrate"
	"github.com/angelmondragon/prostore-backend/pkg/redis"
	"github.com/angelmondragon/prostore-backend/pkg/storage/gcs"
	pkgstripe "github.com/angelmondragon/prostore-backend/pkg/stripe"
)

// paymentScope namespaces the per-order payment confirmation guard.
const paymentScope = "payment"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.AutoMigrate(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	storeMetrics := metrics.NewStoreMetrics(registry)

	paymentMethods, err := enums.ParsePaymentMethods(cfg.Store.PaymentMethods)
	if err != nil {
		return fmt.Errorf("parse payment methods: %w", err)
	}

	gormDB := dbClient.DB()
	productRepo := product.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	detailCache := product.NewDetailCache(redisClient, cfg.Store.ProductCacheTTL, storeMetrics, logg)

	productService, err := product.NewService(product.ServiceParams{
		Repo:  productRepo,
		Cache: detailCache,
		Store: cfg.Store,
	})
	if err != nil {
		return fmt.Errorf("create product service: %w", err)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:        cartRepo,
		Products:    productRepo,
		TxRunner:    dbClient,
		Invalidator: detailCache,
		Metrics:     storeMetrics,
		Logger:      logg,
	})
	if err != nil {
		return fmt.Errorf("create cart service: %w", err)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:        reviews.NewRepository(gormDB),
		Products:    productRepo,
		TxRunner:    dbClient,
		Invalidator: detailCache,
		Logger:      logg,
	})
	if err != nil {
		return fmt.Errorf("create review service: %w", err)
	}

	userService, err := users.NewService(userRepo, paymentMethods, cfg.Store.PageSize)
	if err != nil {
		return fmt.Errorf("create user service: %w", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Carts:          cartService,
		TxRunner:       dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:        orders.NewRepository(gormDB),
		Carts:       cartRepo,
		Users:       userRepo,
		Stock:       productRepo,
		Products:    productRepo,
		UserCounter: userRepo,
		TxRunner:    dbClient,
		Invalidator: detailCache,
		Metrics:     storeMetrics,
		Logger:      logg,
		PageSize:    cfg.Store.PageSize,
	})
	if err != nil {
		return fmt.Errorf("create order service: %w", err)
	}

	paymentGuard, err := payments.NewGuard(redisClient, cfg.Store.PaymentIdempotencyTTL, paymentScope)
	if err != nil {
		return fmt.Errorf("create payment guard: %w", err)
	}

	paymentParams := payments.ServiceParams{
		Orders:   orderService,
		Currency: cfg.Stripe.Currency,
		Guard:    paymentGuard,
		Metrics:  storeMetrics,
		Logger:   logg,
	}
	if cfg.PayPal.Enabled() {
		paypalClient, err := payments.NewPayPalClient(ctx, cfg.PayPal, logg)
		if err != nil {
			return fmt.Errorf("create paypal client: %w", err)
		}
		paymentParams.PayPal = paypalClient
	} else {
		logg.Warn(ctx, "paypal credentials missing, paypal payments disabled")
	}

	var stripeClient *pkgstripe.Client
	if cfg.Stripe.Enabled() {
		stripeClient, err = pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return fmt.Errorf("create stripe client: %w", err)
		}
		paymentParams.Stripe = payments.NewStripeIntents(stripeClient, logg)
		paymentParams.Currency = stripeClient.Currency()
	} else {
		logg.Warn(ctx, "stripe credentials missing, stripe payments disabled")
	}

	paymentService, err := payments.NewService(paymentParams)
	if err != nil {
		return fmt.Errorf("create payment service: %w", err)
	}

	ready := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	params := routes.Params{
		Config:         cfg,
		Logger:         logg,
		Redis:          redisClient,
		Sessions:       sessionManager,
		Ready:          ready,
		HTTPMetrics:    httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Auth:           authService,
		Products:       productService,
		Reviews:        reviewService,
		Cart:           cartService,
		Users:          userService,
		Orders:         orderService,
		Payments:       paymentService,
	}

	if stripeClient != nil {
		webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Payments: paymentService,
			Logger:   logg,
		})
		if err != nil {
			return fmt.Errorf("create stripe webhook service: %w", err)
		}
		eventGuard, err := payments.NewGuard(redisClient, cfg.Store.PaymentIdempotencyTTL, stripewebhook.EventScope)
		if err != nil {
			return fmt.Errorf("create stripe event guard: %w", err)
		}
		params.Stripe = routes.StripeWebhook{
			Service:  webhookService,
			Verifier: stripeClient,
			Guard:    eventGuard,
		}
	}

	if cfg.FeatureFlags.Uploads {
		gcsClient, gcsErr := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if gcsErr != nil {
			return fmt.Errorf("bootstrap gcs: %w", gcsErr)
		}
		defer func() { err = multierr.Append(err, gcsClient.Close()) }()

		mediaService, mediaErr := media.NewService(gcsClient, cfg.Media.MaxImageBytes(), logg)
		if mediaErr != nil {
			return fmt.Errorf("create media service: %w", mediaErr)
		}
		params.Media = mediaService
		ready["storage"] = gcsClient
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(params), logg)
	if err := server.Run(ctx); err != nil {
		return err
	}
	logg.Info(logCtx, "api server stopped")
	return nil
}
