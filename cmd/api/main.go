package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dromero-dev/clubfunds-backend/api/routes"
	"github.com/dromero-dev/clubfunds-backend/internal/expenses"
	"github.com/dromero-dev/clubfunds-backend/internal/payments"
	"github.com/dromero-dev/clubfunds-backend/internal/reconcile"
	"github.com/dromero-dev/clubfunds-backend/internal/records"
	"github.com/dromero-dev/clubfunds-backend/internal/stripecustomers"
	"github.com/dromero-dev/clubfunds-backend/pkg/config"
	"github.com/dromero-dev/clubfunds-backend/pkg/firestore"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
	"github.com/dromero-dev/clubfunds-backend/pkg/metrics"
	"github.com/dromero-dev/clubfunds-backend/pkg/redis"
	"github.com/dromero-dev/clubfunds-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "clubfunds-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "clubfunds-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	var (
		store       records.Store
		storePinger routes.Pinger
	)
	if cfg.Firestore.Configured() {
		fsClient, err := firestore.NewClient(context.Background(), cfg.Firestore, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap firestore", err)
			os.Exit(1)
		}
		defer func() {
			if err := fsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing firestore", err)
			}
		}()
		store, err = records.NewFirestoreStore(fsClient)
		if err != nil {
			logg.Error(context.Background(), "failed to wrap firestore store", err)
			os.Exit(1)
		}
		storePinger = fsClient
	} else {
		logg.Warn(context.Background(), "firestore not configured, records held in memory")
		store = records.NewMemoryStore()
	}

	var (
		redisClient *redis.Client
		guard       routes.EventGuard
		limiter     routes.RateLimiterStore
		cachePinger routes.Pinger
	)
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		guard, err = reconcile.NewIdempotencyGuard(redisClient, cfg.Webhook.EventGuardTTL, "stripe-event")
		if err != nil {
			logg.Error(context.Background(), "failed to create event guard", err)
			os.Exit(1)
		}
		limiter = redisClient
		cachePinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, event dedup and rate limiting disabled")
	}

	customersService := stripecustomers.NewService(stripeClient)

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Store:         store,
		Customers:     customersService,
		Provider:      stripeClient,
		Currency:      cfg.Payments.Currency(),
		MinimumAmount: cfg.Payments.MinimumAmount,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	expensesService, err := expenses.NewService(expenses.ServiceParams{
		Store:     store,
		Customers: customersService,
		Provider:  stripeClient,
		Currency:  cfg.Payments.Currency(),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expenses service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(reconcile.ServiceParams{
		Store:    store,
		Provider: stripeClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	router := routes.NewRouter(routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		Payments:       paymentsService,
		Expenses:       expensesService,
		Reconcile:      reconcileService,
		Verifier:       stripeClient,
		Provider:       stripeClient,
		WebhookGuard:   guard,
		WebhookMetrics: webhookMetrics,
		RateLimiter:    limiter,
		StorePinger:    storePinger,
		CachePinger:    cachePinger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
