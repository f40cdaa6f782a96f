package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dromero-dev/clubfunds-backend/api/responses"
	"github.com/dromero-dev/clubfunds-backend/api/validators"
	"github.com/dromero-dev/clubfunds-backend/internal/payments"
	"github.com/dromero-dev/clubfunds-backend/internal/records"
	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
)

type PaymentsService interface {
	CreateIntent(ctx context.Context, input payments.CreateIntentInput) (*payments.CreateIntentResult, error)
	History(ctx context.Context, organizationID, memberID string) ([]records.PaymentIntentRecord, error)
}

type createIntentRequest struct {
	Amount         int64  `json:"amount" validate:"required,min=50"`
	Currency       string `json:"currency" validate:"required"`
	MemberID       string `json:"memberId" validate:"required"`
	OrganizationID string `json:"organizationId" validate:"required"`
	Description    string `json:"description" validate:"required"`
	PaymentType    string `json:"paymentType" validate:"omitempty,oneof=dues donation expense"`
}

type historyEntry struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Description string `json:"description"`
	PaymentType string `json:"paymentType"`
	CreatedAt   string `json:"createdAt"`
}

// CreatePaymentIntent issues a provider payment intent for a member charge.
func CreatePaymentIntent(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req createIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithMemberID(ctx, req.MemberID)
			ctx = logg.WithOrganizationID(ctx, req.OrganizationID)
		}

		result, err := svc.CreateIntent(ctx, payments.CreateIntentInput{
			AmountCents:    req.Amount,
			Currency:       req.Currency,
			MemberID:       req.MemberID,
			OrganizationID: req.OrganizationID,
			Description:    req.Description,
			PaymentType:    enums.PaymentType(req.PaymentType),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusOK, map[string]string{
			"clientSecret":    result.ClientSecret,
			"paymentIntentId": result.PaymentIntentID,
		})
	}
}

// PaymentHistory lists a member's payment intents, newest first.
func PaymentHistory(svc PaymentsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orgID := chi.URLParam(r, "organizationId")
		memberID := chi.URLParam(r, "memberId")

		recs, err := svc.History(ctx, orgID, memberID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries := make([]historyEntry, 0, len(recs))
		for _, rec := range recs {
			entries = append(entries, historyEntry{
				ID:          rec.ID,
				Amount:      rec.AmountCents,
				Currency:    rec.Currency,
				Status:      rec.Status.String(),
				Description: rec.Description,
				PaymentType: rec.PaymentType.String(),
				CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
			})
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{"payments": entries})
	}
}
