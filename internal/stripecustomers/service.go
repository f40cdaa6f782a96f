// Package stripecustomers resolves a member's provider-customer reference by
// look-up-then-create. The lookup keys on the member's contact address; the
// read-then-write window is unlocked on purpose, a duplicate customer is
// merely wasteful while the created intent still carries the right metadata.
package stripecustomers

import (
	"context"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/dromero-dev/clubfunds-backend/pkg/errors"
)

// Service ensures provider customer records exist and exposes the customer identifier.
type Service interface {
	EnsureCustomer(ctx context.Context, input Input) (string, error)
}

// Input contains the fields required to create or locate a provider customer.
type Input struct {
	MemberID       string
	OrganizationID string
	Name           string
	Email          string
	CachedID       string
}

// ProviderClient is the subset of the Stripe client the resolution needs.
type ProviderClient interface {
	FindCustomerByEmail(ctx context.Context, email string) (*stripeapi.Customer, error)
	CreateCustomer(ctx context.Context, params *stripeapi.CustomerParams) (*stripeapi.Customer, error)
}

type service struct {
	client ProviderClient
}

// NewService builds a service that uses the shared Stripe client.
func NewService(client ProviderClient) Service {
	return &service{client: client}
}

func (s *service) EnsureCustomer(ctx context.Context, input Input) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New(errors.CodeInternal, "stripe client required")
	}

	if cached := strings.TrimSpace(input.CachedID); cached != "" {
		return cached, nil
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return "", errors.New(errors.CodeValidation, "member contact address required")
	}

	existing, err := s.client.FindCustomerByEmail(ctx, email)
	if err != nil {
		return "", errors.Wrap(errors.CodeProvider, err, "look up stripe customer")
	}
	if existing != nil && existing.ID != "" {
		return existing.ID, nil
	}

	params := &stripeapi.CustomerParams{
		Email: stripeapi.String(email),
		Name:  stripeapi.String(strings.TrimSpace(input.Name)),
	}
	params.AddMetadata("memberId", input.MemberID)
	params.AddMetadata("organizationId", input.OrganizationID)

	created, err := s.client.CreateCustomer(ctx, params)
	if err != nil {
		return "", errors.Wrap(errors.CodeProvider, err, "create stripe customer")
	}
	if created == nil || created.ID == "" {
		return "", errors.New(errors.CodeProvider, "stripe customer id missing")
	}
	return created.ID, nil
}
