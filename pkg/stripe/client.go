package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/transfer"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/dromero-dev/clubfunds-backend/pkg/config"
	"github.com/dromero-dev/clubfunds-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errNotConfigured    = errors.New("stripe client not configured")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API surface plus env-specific metadata. When no API
// key is configured the client stays disabled and the API degrades to demo
// responses instead of making provider calls.
type Client struct {
	environment   string
	signingSecret string
	enabled       bool
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		if logg != nil {
			logg.Warn(ctx, "stripe api key absent, running in demo mode")
		}
		return &Client{environment: env}, nil
	}

	signingSecret := strings.TrimSpace(cfg.SigningSecret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))
	}

	return &Client{
		environment:   env,
		signingSecret: signingSecret,
		enabled:       true,
	}, nil
}

// Enabled reports whether real provider calls can be made.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// VerifyEvent checks the provider signature and decodes the event. It must
// run before any part of the payload is trusted.
func (c *Client) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if !c.Enabled() {
		return stripe.Event{}, errNotConfigured
	}
	return webhook.ConstructEvent(payload, sigHeader, c.signingSecret)
}

// CreatePaymentIntent issues a provider payment intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if !c.Enabled() {
		return nil, errNotConfigured
	}
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

// GetPaymentIntent re-fetches an intent, used by reconciliation to recover
// metadata from a refund payload that only references the charge.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if !c.Enabled() {
		return nil, errNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

// FindCustomerByEmail returns the first customer matching the contact
// address, or nil when none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	if !c.Enabled() {
		return nil, errNotConfigured
	}
	params := &stripe.CustomerListParams{Email: stripe.String(strings.TrimSpace(email))}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	iter := customer.List(params)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// CreateCustomer creates a provider customer record.
func (c *Client) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	if !c.Enabled() {
		return nil, errNotConfigured
	}
	if params != nil {
		params.Context = ctx
	}
	return customer.New(params)
}

// CreateTransfer issues a provider transfer for a reimbursement payout.
func (c *Client) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	if !c.Enabled() {
		return nil, errNotConfigured
	}
	if params != nil {
		params.Context = ctx
	}
	return transfer.New(params)
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
