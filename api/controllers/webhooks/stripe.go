// Package webhooks terminates the provider's event deliveries. The endpoint
// acknowledges every verified event, even when applying it fails; the
// provider's retry storm is worse than a lost update, which the swallowed
// counter and error log surface instead.
package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/dromero-dev/clubfunds-backend/api/responses"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
	"github.com/dromero-dev/clubfunds-backend/pkg/metrics"
)

type ReconcileService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type eventVerifier interface {
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

var receivedBody = map[string]bool{"received": true}

// StripeWebhook verifies and reconciles inbound Stripe events. The guard is
// optional; without it every delivery is handled and idempotency rests on
// the reconciliation writes alone.
func StripeWebhook(svc ReconcileService, verifier eventVerifier, guard eventGuard, wm *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			wm.IncRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeAuthentication, "stripe signature missing"))
			return
		}

		event, err := verifier.VerifyEvent(payload, sigHeader)
		if err != nil {
			wm.IncRejected()
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeAuthentication, err, "signature verification failed"))
			return
		}

		if logg != nil {
			ctx = logg.WithEventID(ctx, event.ID)
		}

		if guard != nil {
			alreadyProcessed, guardErr := guard.CheckAndMark(ctx, event.ID)
			if guardErr != nil {
				// Fail open: processing a duplicate is recoverable, dropping
				// a delivery is not.
				if logg != nil {
					logg.Warn(ctx, "webhook.guard_unavailable")
				}
			} else if alreadyProcessed {
				if logg != nil {
					logg.Info(ctx, "webhook.event.duplicate")
				}
				responses.WriteJSON(w, http.StatusOK, receivedBody)
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			wm.IncSwallowed(string(event.Type))
			if guard != nil {
				_ = guard.Delete(ctx, event.ID)
			}
			if logg != nil {
				logg.Error(ctx, "webhook.reconcile.failed", err)
			}
			responses.WriteJSON(w, http.StatusOK, receivedBody)
			return
		}

		wm.IncProcessed(string(event.Type))
		responses.WriteJSON(w, http.StatusOK, receivedBody)
	}
}
