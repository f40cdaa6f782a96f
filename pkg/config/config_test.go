package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLUBFUNDS_APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.App.Port)
	require.True(t, cfg.App.IsDev())
	require.False(t, cfg.App.IsProd())
	require.Equal(t, "usd", cfg.Payments.Currency())
	require.EqualValues(t, 50, cfg.Payments.MinimumAmount)
	require.Equal(t, 60, cfg.RateLimit.IPLimit)
}

func TestStripeConfigured(t *testing.T) {
	cfg := StripeConfig{}
	require.False(t, cfg.Configured())
	require.Equal(t, "test", cfg.Environment())

	cfg = StripeConfig{APIKey: "sk_test_123", Env: " LIVE "}
	require.True(t, cfg.Configured())
	require.Equal(t, "live", cfg.Environment())
}

func TestPaymentsCurrencyNormalized(t *testing.T) {
	cfg := PaymentsConfig{SupportedCurrency: " USD "}
	require.Equal(t, "usd", cfg.Currency())

	cfg = PaymentsConfig{}
	require.Equal(t, "usd", cfg.Currency())
}
