// Package routes assembles the HTTP surface: middleware chain, endpoint
// paths, and the JSON fallbacks for unmatched routes.
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stripe/stripe-go/v84"

	"github.com/dromero-dev/clubfunds-backend/api/controllers"
	webhookcontrollers "github.com/dromero-dev/clubfunds-backend/api/controllers/webhooks"
	"github.com/dromero-dev/clubfunds-backend/api/middleware"
	"github.com/dromero-dev/clubfunds-backend/api/responses"
	"github.com/dromero-dev/clubfunds-backend/pkg/config"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
	"github.com/dromero-dev/clubfunds-backend/pkg/metrics"
)

// Pinger is a health-checkable collaborator.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimiterStore backs the per-IP fixed-window limiter.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ProviderStatus reports whether the payment provider is configured.
type ProviderStatus interface {
	Enabled() bool
}

// EventVerifier authenticates inbound webhook payloads.
type EventVerifier interface {
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// EventGuard deduplicates webhook deliveries.
type EventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// RouterParams carries everything the HTTP surface depends on. Optional
// collaborators (guard, limiter, pingers) may be nil; the affected routes
// degrade instead of failing to mount.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	Payments       controllers.PaymentsService
	Expenses       controllers.ExpensesService
	Reconcile      webhookcontrollers.ReconcileService
	Verifier       EventVerifier
	Provider       ProviderStatus
	WebhookGuard   EventGuard
	WebhookMetrics *metrics.WebhookMetrics
	RateLimiter    RateLimiterStore
	StorePinger    Pinger
	CachePinger    Pinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteJSON(w, http.StatusNotFound, responses.ErrorBody{Error: "Endpoint not found"})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	rateLimitPolicy := middleware.NewRateLimitPolicy(cfg.RateLimit.Window, cfg.RateLimit.IPLimit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", controllers.Health(cfg.App.Env, params.Provider, params.StorePinger, params.CachePinger))

		// Provider deliveries are exempt from the per-IP limit; throttling
		// Stripe's retries would turn transient load into lost events.
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(
			params.Reconcile, params.Verifier, params.WebhookGuard, params.WebhookMetrics, logg,
		))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rateLimitPolicy, params.RateLimiter, logg))

			r.Route("/payments", func(r chi.Router) {
				r.Post("/create-payment-intent", controllers.CreatePaymentIntent(params.Payments, logg))
				r.Get("/history/{organizationId}/{memberId}", controllers.PaymentHistory(params.Payments, logg))
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/submit", controllers.SubmitExpense(params.Expenses, logg))
				r.Post("/process-reimbursement", controllers.ProcessReimbursement(params.Expenses, logg))
			})
		})
	})

	return r
}
