// Package expenses covers the expense lifecycle: claim submission with an
// optional reimbursement charge, and reimbursement issuance via provider
// transfers.
package expenses

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/dromero-dev/clubfunds-backend/internal/records"
	"github.com/dromero-dev/clubfunds-backend/internal/stripecustomers"
	"github.com/dromero-dev/clubfunds-backend/pkg/enums"
	pkgerrors "github.com/dromero-dev/clubfunds-backend/pkg/errors"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
	"github.com/dromero-dev/clubfunds-backend/pkg/money"
)

// ProviderClient is the subset of the Stripe client the expense flows need.
// Enabled reports whether the provider is configured; when it is not, claim
// submission degrades to a demo response instead of failing.
type ProviderClient interface {
	Enabled() bool
	CreatePaymentIntent(ctx context.Context, params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)
	CreateTransfer(ctx context.Context, params *stripeapi.TransferParams) (*stripeapi.Transfer, error)
}

type ServiceParams struct {
	Store     records.Store
	Customers stripecustomers.Service
	Provider  ProviderClient
	Currency  string
	Logger    *logger.Logger
}

type Service struct {
	store     records.Store
	customers stripecustomers.Service
	provider  ProviderClient
	currency  string
	logg      *logger.Logger
	now       func() time.Time
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
	return &Service{
		store:     params.Store,
		customers: params.Customers,
		provider:  params.Provider,
		currency:  currency,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// SubmitInput carries a claim in major currency units, matching what the
// client form collects.
type SubmitInput struct {
	SubmitterName  string
	Amount         float64
	Category       string
	Description    string
	MemberID       string
	OrganizationID string
	ReceiptURL     string
}

type SubmitResult struct {
	ExpenseID       string
	PaymentIntentID string
	ClientSecret    string
	Message         string
}

// Submit records the claim and, when the provider is configured, issues a
// payment intent so the member can be charged for the expense. Without a
// provider the claim is still written and synthetic identifiers are returned.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if err := s.validateSubmitInput(input); err != nil {
		return nil, err
	}

	record := &records.ExpenseRecord{
		Submitter:   input.SubmitterName,
		Amount:      input.Amount,
		Category:    input.Category,
		Description: input.Description,
		Date:        s.now().UTC(),
		Status:      enums.ExpenseStatusPending,
		ReceiptURL:  input.ReceiptURL,
	}
	expenseID, err := s.store.CreateExpense(ctx, input.OrganizationID, input.MemberID, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "persist expense record")
	}

	if !s.provider.Enabled() {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "expense_id", expenseID)
			s.logg.Warn(logCtx, "expenses.submit.demo_mode")
		}
		return &SubmitResult{
			ExpenseID:       expenseID,
			PaymentIntentID: "demo_pi_" + uuid.NewString(),
			ClientSecret:    "demo_secret_" + uuid.NewString(),
			Message:         "Expense recorded in demo mode; no charge was created",
		}, nil
	}

	member, err := s.store.GetMember(ctx, input.OrganizationID, input.MemberID)
	if err != nil {
		if err == records.ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load member")
	}

	customerID, err := s.ensureCustomer(ctx, member)
	if err != nil {
		return nil, err
	}

	amountCents := money.MajorToMinor(decimal.NewFromFloat(input.Amount))
	params := &stripeapi.PaymentIntentParams{
		Amount:      stripeapi.Int64(amountCents),
		Currency:    stripeapi.String(s.currency),
		Customer:    stripeapi.String(customerID),
		Description: stripeapi.String(input.Description),
	}
	params.AddMetadata("memberId", member.ID)
	params.AddMetadata("organizationId", member.OrganizationID)
	params.AddMetadata("paymentType", enums.PaymentTypeExpense.String())
	params.AddMetadata("memberName", member.Name)

	intent, err := s.provider.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "create expense payment intent")
	}

	mirror := &records.PaymentIntentRecord{
		ID:             intent.ID,
		AmountCents:    amountCents,
		Currency:       s.currency,
		Status:         enums.PaymentStatusPending,
		Description:    input.Description,
		PaymentType:    enums.PaymentTypeExpense,
		MemberID:       member.ID,
		OrganizationID: member.OrganizationID,
		MemberName:     member.Name,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreatePaymentIntent(ctx, input.OrganizationID, input.MemberID, mirror); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "persist payment intent record")
	}

	return &SubmitResult{
		ExpenseID:       expenseID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Message:         "Expense submitted",
	}, nil
}

type ReimburseInput struct {
	Amount         float64
	MemberID       string
	OrganizationID string
	Description    string
	ReceiptURL     string
	ExpenseID      string
}

type ReimburseResult struct {
	TransferID string
	Message    string
}

// ProcessReimbursement issues a provider transfer to the member's payout
// account and marks the expense reimbursed. The two side effects are not
// transactional: a store failure after the transfer leaves the money moved
// with the expense still pending.
func (s *Service) ProcessReimbursement(ctx context.Context, input ReimburseInput) (*ReimburseResult, error) {
	if err := s.validateReimburseInput(input); err != nil {
		return nil, err
	}
	if !s.provider.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeProvider, "payment provider not configured")
	}

	member, err := s.store.GetMember(ctx, input.OrganizationID, input.MemberID)
	if err != nil {
		if err == records.ErrNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load member")
	}
	if member.StripeAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member has no connected payout account").
			WithDetails(map[string]string{"memberId": input.MemberID})
	}

	if _, err := s.ensureCustomer(ctx, member); err != nil {
		return nil, err
	}

	amountCents := money.MajorToMinor(decimal.NewFromFloat(input.Amount))
	params := &stripeapi.TransferParams{
		Amount:      stripeapi.Int64(amountCents),
		Currency:    stripeapi.String(s.currency),
		Destination: stripeapi.String(member.StripeAccountID),
		Description: stripeapi.String(input.Description),
	}
	params.AddMetadata("memberId", member.ID)
	params.AddMetadata("organizationId", member.OrganizationID)
	params.AddMetadata("expenseId", input.ExpenseID)
	params.AddMetadata("memberName", member.Name)

	transfer, err := s.provider.CreateTransfer(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "create reimbursement transfer")
	}

	reimbursedAt := s.now().UTC()
	if err := s.store.MergeExpense(ctx, input.OrganizationID, input.MemberID, input.ExpenseID, map[string]any{
		"status":             enums.ExpenseStatusReimbursed.String(),
		"stripe_transfer_id": transfer.ID,
		"reimbursed_date":    reimbursedAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "mark expense reimbursed")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"member_id":   input.MemberID,
			"expense_id":  input.ExpenseID,
			"transfer_id": transfer.ID,
		})
		s.logg.Info(logCtx, "expenses.reimbursement.processed")
	}
	return &ReimburseResult{
		TransferID: transfer.ID,
		Message:    "Reimbursement processed",
	}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, member *records.Member) (string, error) {
	customerID, err := s.customers.EnsureCustomer(ctx, stripecustomers.Input{
		MemberID:       member.ID,
		OrganizationID: member.OrganizationID,
		Name:           member.Name,
		Email:          member.Email,
		CachedID:       member.StripeCustomerID,
	})
	if err != nil {
		return "", err
	}
	if customerID != member.StripeCustomerID {
		if mergeErr := s.store.MergeMember(ctx, member.OrganizationID, member.ID, map[string]any{
			"stripe_customer_id": customerID,
		}); mergeErr != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeStore, mergeErr, "cache customer reference")
		}
	}
	return customerID, nil
}

func (s *Service) validateSubmitInput(input SubmitInput) error {
	violations := map[string]string{}
	if strings.TrimSpace(input.SubmitterName) == "" {
		violations["submitterName"] = "is required"
	}
	if input.Amount <= 0 {
		violations["amount"] = "must be greater than zero"
	}
	if strings.TrimSpace(input.Category) == "" {
		violations["category"] = "is required"
	}
	if strings.TrimSpace(input.Description) == "" {
		violations["description"] = "is required"
	}
	if strings.TrimSpace(input.MemberID) == "" {
		violations["memberId"] = "is required"
	}
	if strings.TrimSpace(input.OrganizationID) == "" {
		violations["organizationId"] = "is required"
	}
	if input.ReceiptURL != "" && !validReceiptURL(input.ReceiptURL) {
		violations["receiptUrl"] = "must be a valid http(s) URL"
	}
	if len(violations) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(violations)
	}
	return nil
}

func (s *Service) validateReimburseInput(input ReimburseInput) error {
	violations := map[string]string{}
	if input.Amount <= 0 {
		violations["amount"] = "must be greater than zero"
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
	if strings.TrimSpace(input.ExpenseID) == "" {
		violations["expenseId"] = "is required"
	}
	if input.ReceiptURL != "" && !validReceiptURL(input.ReceiptURL) {
		violations["receiptUrl"] = "must be a valid http(s) URL"
	}
	if len(violations) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(violations)
	}
	return nil
}

func validReceiptURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
