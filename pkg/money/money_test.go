package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMinorToMajor(t *testing.T) {
	require.True(t, MinorToMajor(15000).Equal(decimal.RequireFromString("150.00")))
	require.True(t, MinorToMajor(50).Equal(decimal.RequireFromString("0.50")))
	require.True(t, MinorToMajor(1).Equal(decimal.RequireFromString("0.01")))
	require.True(t, MinorToMajor(0).Equal(decimal.Zero))
}

func TestMajorToMinor(t *testing.T) {
	require.EqualValues(t, 15000, MajorToMinor(decimal.RequireFromString("150.00")))
	require.EqualValues(t, 50, MajorToMinor(decimal.RequireFromString("0.50")))
	require.EqualValues(t, 1999, MajorToMinor(decimal.RequireFromString("19.99")))
}

func TestRoundTrip(t *testing.T) {
	for _, minor := range []int64{1, 50, 999, 15000, 123456789} {
		require.EqualValues(t, minor, MajorToMinor(MinorToMajor(minor)))
	}
}

func TestMajorToMinorRoundsFloatNoise(t *testing.T) {
	noisy := decimal.NewFromFloat(149.99999999999997)
	require.EqualValues(t, 15000, MajorToMinor(noisy))
}

func TestMajorFloat(t *testing.T) {
	require.InDelta(t, 150.0, MajorFloat(15000), 1e-9)
}
