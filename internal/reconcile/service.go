// Package reconcile applies asynchronous provider events to the local record
// mirror. The provider payload's metadata is the only path back to the local
// entities, so every handler starts from the metadata join keys.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/dromero-dev/clubfunds-backend/internal/records"
	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
	"github.com/dromero-dev/clubfunds-backend/pkg/money"
)

const fallbackFailureReason = "Payment failed"

// ProviderClient is the subset of the Stripe client reconciliation needs: a
// refund payload only references the charge, so the owning intent has to be
// re-fetched to recover the metadata.
type ProviderClient interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripeapi.PaymentIntent, error)
}

type ServiceParams struct {
	Store    records.Store
	Provider ProviderClient
	Logger   *logger.Logger
}

// Service is the event reconciliation state machine.
type Service struct {
	store    records.Store
	provider ProviderClient
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "provider client required")
	}
	return &Service{
		store:    params.Store,
		provider: params.Provider,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// HandleEvent dispatches a verified provider event to its state transition.
// Unknown event types are acknowledged as no-ops.
func (s *Service) HandleEvent(ctx context.Context, event *stripeapi.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data required")
	}

	switch event.Type {
	case stripeapi.EventTypePaymentIntentSucceeded:
		return s.handleIntentSucceeded(ctx, event.Data.Raw)
	case stripeapi.EventTypePaymentIntentPaymentFailed:
		return s.handleIntentFailed(ctx, event.Data.Raw)
	case stripeapi.EventTypeChargeRefunded:
		return s.handleChargeRefunded(ctx, event.Data.Raw)
	default:
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "event_type", string(event.Type))
			s.logg.Info(logCtx, "webhook.event.ignored")
		}
		return nil
	}
}

type joinKeys struct {
	memberID       string
	organizationID string
	paymentType    enums.PaymentType
	memberName     string
}

func keysFromMetadata(metadata map[string]string) (joinKeys, error) {
	keys := joinKeys{
		memberID:       metadata["memberId"],
		organizationID: metadata["organizationId"],
		paymentType:    enums.PaymentType(metadata["paymentType"]),
		memberName:     metadata["memberName"],
	}
	if keys.memberID == "" || keys.organizationID == "" {
		return joinKeys{}, pkgerrors.New(pkgerrors.CodeValidation, "event metadata missing member join keys")
	}
	return keys, nil
}

func (s *Service) handleIntentSucceeded(ctx context.Context, raw json.RawMessage) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent payload")
	}

	keys, err := keysFromMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	today := s.now().UTC()
	dues := map[string]any{
		"member_name":              keys.memberName,
		"amount":                   money.MajorFloat(intent.Amount),
		"status":                   enums.PaymentStatusPaid.String(),
		"paid_date":                today,
		"stripe_payment_intent_id": intent.ID,
	}
	if chargeID := latestChargeID(&intent); chargeID != "" {
		dues["stripe_charge_id"] = chargeID
	}
	if err := s.store.MergeDues(ctx, keys.organizationID, keys.memberID, dues); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "upsert dues record")
	}

	if err := s.store.MergePaymentIntent(ctx, keys.organizationID, keys.memberID, intent.ID, map[string]any{
		"status": enums.PaymentStatusPaid.String(),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "mirror intent status")
	}

	if keys.paymentType == enums.PaymentTypeDonation {
		// Keyed by intent id so a redelivered success event merges into the
		// same donation document instead of appending a duplicate.
		donation := map[string]any{
			"campaign":                 donationCampaign(&intent),
			"donor_name":               keys.memberName,
			"amount":                   money.MajorFloat(intent.Amount),
			"date":                     today,
			"stripe_payment_intent_id": intent.ID,
		}
		if err := s.store.PutDonation(ctx, keys.organizationID, keys.memberID, intent.ID, donation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "record donation")
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"member_id":       keys.memberID,
			"organization_id": keys.organizationID,
			"intent_id":       intent.ID,
		})
		s.logg.Info(logCtx, "webhook.intent.succeeded")
	}
	return nil
}

func (s *Service) handleIntentFailed(ctx context.Context, raw json.RawMessage) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent payload")
	}

	keys, err := keysFromMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	reason := fallbackFailureReason
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		reason = intent.LastPaymentError.Msg
	}

	dues := map[string]any{
		"member_name":              keys.memberName,
		"status":                   enums.PaymentStatusFailed.String(),
		"failure_reason":           reason,
		"stripe_payment_intent_id": intent.ID,
	}
	if err := s.store.MergeDues(ctx, keys.organizationID, keys.memberID, dues); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "upsert dues record")
	}

	if err := s.store.MergePaymentIntent(ctx, keys.organizationID, keys.memberID, intent.ID, map[string]any{
		"status": enums.PaymentStatusFailed.String(),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "mirror intent status")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"member_id": keys.memberID,
			"intent_id": intent.ID,
			"reason":    reason,
		})
		s.logg.Warn(logCtx, "webhook.intent.failed")
	}
	return nil
}

func (s *Service) handleChargeRefunded(ctx context.Context, raw json.RawMessage) error {
	var charge stripeapi.Charge
	if err := json.Unmarshal(raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge payload")
	}
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "refunded charge missing payment intent reference")
	}

	// The refund payload carries no metadata of its own.
	intent, err := s.provider.GetPaymentIntent(ctx, charge.PaymentIntent.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProvider, err, "fetch intent for refunded charge")
	}

	keys, err := keysFromMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	dues := map[string]any{
		"member_name":              keys.memberName,
		"amount":                   money.MajorFloat(charge.AmountRefunded),
		"status":                   enums.PaymentStatusRefunded.String(),
		"refund_date":              s.now().UTC(),
		"stripe_payment_intent_id": intent.ID,
		"stripe_charge_id":         charge.ID,
	}
	if refundID := firstRefundID(&charge); refundID != "" {
		dues["stripe_refund_id"] = refundID
	}
	if err := s.store.MergeDues(ctx, keys.organizationID, keys.memberID, dues); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "upsert dues record")
	}

	if err := s.store.MergePaymentIntent(ctx, keys.organizationID, keys.memberID, intent.ID, map[string]any{
		"status": enums.PaymentStatusRefunded.String(),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "mirror intent status")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"member_id": keys.memberID,
			"charge_id": charge.ID,
			"intent_id": intent.ID,
		})
		s.logg.Info(logCtx, "webhook.charge.refunded")
	}
	return nil
}

func latestChargeID(intent *stripeapi.PaymentIntent) string {
	if intent.LatestCharge == nil {
		return ""
	}
	return intent.LatestCharge.ID
}

func firstRefundID(charge *stripeapi.Charge) string {
	if charge.Refunds == nil || len(charge.Refunds.Data) == 0 || charge.Refunds.Data[0] == nil {
		return ""
	}
	return charge.Refunds.Data[0].ID
}

func donationCampaign(intent *stripeapi.PaymentIntent) string {
	if campaign := intent.Metadata["campaign"]; campaign != "" {
		return campaign
	}
	return intent.Description
}
