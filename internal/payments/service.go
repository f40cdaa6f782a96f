package payments

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/dromero-dev/clubfunds-backend/internal/records"
	"github.com/dromero-dev/clubfunds-backend/internal/stripecustomers"
	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
)

// ProviderClient is the subset of the Stripe client intent issuance needs.
type ProviderClient interface {
	CreatePaymentIntent(ctx context.Context, params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
}

type ServiceParams struct {
	Store         records.Store
	Customers     stripecustomers.Service
	Provider      ProviderClient
	Currency      string
	MinimumAmount int64
}

// Service implements intent issuance and the payment-history projection.
type Service struct {
	store         records.Store
	customers     stripecustomers.Service
	provider      ProviderClient
	currency      string
	minimumAmount int64
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer service required")
	}
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "provider client required")
	}
	currency := strings.TrimSpace(strings.ToLower(params.Currency))
	if currency == "" {
		currency = "usd"
	}
	minimum := params.MinimumAmount
	if minimum <= 0 {
		minimum = 50
	}
	return &Service{
		store:         params.Store,
		customers:     params.Customers,
		provider:      params.Provider,
		currency:      currency,
		minimumAmount: minimum,
		now:           time.Now,
	}, nil
}

type CreateIntentInput struct {
	AmountCents    int64
	Currency       string
	MemberID       string
	OrganizationID string
	Description    string
	PaymentType    enums.PaymentType
}

type CreateIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// CreateIntent resolves the payer, issues a provider payment intent tagged
// with the metadata join keys, and persists the local mirror. The three
// steps are not atomic; a store failure after the provider call leaves a
// provider-side intent with no mirror, recoverable from the event stream.
func (s *Service) CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentResult, error) {
	if err := s.validateIntentInput(input); err != nil {
		return nil, err
	}

	member, err := s.store.GetMember(ctx, input.OrganizationID, input.MemberID)
	if err != nil {
		if err == records.ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load member")
	}

	customerID, err := s.customers.EnsureCustomer(ctx, stripecustomers.Input{
		MemberID:       member.ID,
		OrganizationID: member.OrganizationID,
		Name:           member.Name,
		Email:          member.Email,
		CachedID:       member.StripeCustomerID,
	})
	if err != nil {
		return nil, err
	}

	if customerID != member.StripeCustomerID {
		// Cache the reference so the next charge skips the lookup. Losing
		// this write only costs an extra lookup later.
		if mergeErr := s.store.MergeMember(ctx, input.OrganizationID, input.MemberID, map[string]any{
			"stripe_customer_id": customerID,
		}); mergeErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, mergeErr, "cache customer reference")
		}
	}

	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = enums.PaymentTypeDues
	}

	params := &stripeapi.PaymentIntentParams{
		Amount:      stripeapi.Int64(input.AmountCents),
		Currency:    stripeapi.String(s.currency),
		Customer:    stripeapi.String(customerID),
		Description: stripeapi.String(input.Description),
	}
	params.AddMetadata("memberId", member.ID)
	params.AddMetadata("organizationId", member.OrganizationID)
	params.AddMetadata("paymentType", paymentType.String())
	params.AddMetadata("memberName", member.Name)

	intent, err := s.provider.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, providerMessage(err))
	}

	record := &records.PaymentIntentRecord{
		ID:             intent.ID,
		AmountCents:    input.AmountCents,
		Currency:       s.currency,
		Status:         statusFromProvider(intent.Status),
		Description:    input.Description,
		PaymentType:    paymentType,
		MemberID:       member.ID,
		OrganizationID: member.OrganizationID,
		MemberName:     member.Name,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreatePaymentIntent(ctx, input.OrganizationID, input.MemberID, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "persist payment intent record")
	}

	return &CreateIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

func (s *Service) validateIntentInput(input CreateIntentInput) error {
	violations := map[string]string{}
	if input.AmountCents < s.minimumAmount {
		violations["amount"] = "must be at least " + strconv.FormatInt(s.minimumAmount, 10) + " minor units"
	}
	if !strings.EqualFold(strings.TrimSpace(input.Currency), s.currency) {
		violations["currency"] = "must be " + s.currency
	}
	if strings.TrimSpace(input.MemberID) == "" {
		violations["memberId"] = "is required"
	}
	if strings.TrimSpace(input.OrganizationID) == "" {
		violations["organizationId"] = "is required"
	}
	if strings.TrimSpace(input.Description) == "" {
		violations["description"] = "is required"
	}
	if input.PaymentType != "" && !input.PaymentType.IsValid() {
		violations["paymentType"] = "is invalid"
	}
	if len(violations) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(violations)
	}
	return nil
}

// History returns the member's payment-intent records, newest first. A
// member with no history yields an empty list, not an error.
func (s *Service) History(ctx context.Context, organizationID, memberID string) ([]records.PaymentIntentRecord, error) {
	if strings.TrimSpace(organizationID) == "" || strings.TrimSpace(memberID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizationId and memberId are required")
	}
	recs, err := s.store.ListPaymentIntents(ctx, organizationID, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "list payment intents")
	}
	if recs == nil {
		recs = []records.PaymentIntentRecord{}
	}
	return recs, nil
}

func statusFromProvider(status stripeapi.PaymentIntentStatus) enums.PaymentStatus {
	switch status {
	case stripeapi.PaymentIntentStatusSucceeded:
		return enums.PaymentStatusPaid
	case stripeapi.PaymentIntentStatusCanceled:
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

// providerMessage passes the provider's rejection reason through to the
// caller when one is present.
func providerMessage(err error) string {
	var stripeErr *stripeapi.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return "create payment intent"
}
