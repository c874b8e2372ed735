package usecases

import (
	"testing"

	apperrors "guardswap/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputeQuote_Scenario(t *testing.T) {
	// amountIn=100, priceIn=0.01, priceOut=0.02, slippage=3%
	result, err := ComputeQuote(100, floatPtr(0.01), floatPtr(0.02), SlippageTolerance{Pct: 3}, 0.2, 6)
	require.NoError(t, err)

	assert.InDelta(t, 50, result.EstimatedOut, 1e-9)
	assert.InDelta(t, 3.2, result.EffectiveTolerancePct, 1e-9)
	assert.InDelta(t, 48.4, result.MinOutHuman, 1e-9)
	assert.Equal(t, FeeDisclosure, result.FeeDisclosure)
}

// The bound is carried in tokenOut base units alongside its human
// rendering, so the quote surface never reports a false zero floor.
func TestComputeQuote_MinOutBaseUnits(t *testing.T) {
	result, err := ComputeQuote(100, floatPtr(0.01), floatPtr(0.02), SlippageTolerance{Pct: 3}, 0.2, 6)
	require.NoError(t, err)

	assert.InDelta(t, 48.4, result.MinOutHuman, 1e-9)
	assert.Equal(t, "48400000", result.MinOut.String())

	// Zero decimals floor to the integer part.
	result, err = ComputeQuote(100, floatPtr(0.01), floatPtr(0.02), SlippageTolerance{Pct: 3}, 0.2, 0)
	require.NoError(t, err)
	assert.Equal(t, "48", result.MinOut.String())
}

func TestComputeQuote_UnlimitedTolerance(t *testing.T) {
	result, err := ComputeQuote(100, floatPtr(0.01), floatPtr(0.02), SlippageTolerance{Unlimited: true}, 0.2, 6)
	require.NoError(t, err)

	assert.Equal(t, "0", result.MinOut.String())
	assert.Zero(t, result.MinOutHuman)
	assert.InDelta(t, 50, result.EstimatedOut, 1e-9)
	// The fee is still disclosed even without a floor.
	assert.InDelta(t, 0.2, result.EffectiveTolerancePct, 1e-9)
}

func TestComputeQuote_Unavailable(t *testing.T) {
	tests := []struct {
		name     string
		amountIn float64
		priceIn  *float64
		priceOut *float64
	}{
		{"zero amount", 0, floatPtr(1), floatPtr(1)},
		{"negative amount", -5, floatPtr(1), floatPtr(1)},
		{"nil price in", 10, nil, floatPtr(1)},
		{"nil price out", 10, floatPtr(1), nil},
		{"zero price in", 10, floatPtr(0), floatPtr(1)},
		{"zero price out", 10, floatPtr(1), floatPtr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeQuote(tt.amountIn, tt.priceIn, tt.priceOut, SlippageTolerance{Pct: 3}, 0.2, 18)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
		})
	}
}

// Increasing the slippage tolerance while holding everything else fixed
// never increases the minimum-output bound.
func TestComputeQuote_Monotonicity(t *testing.T) {
	previous := -1.0
	for _, pct := range []float64{0, 0.5, 1, 3, 10, 50, 99.8, 150} {
		result, err := ComputeQuote(100, floatPtr(0.01), floatPtr(0.02), SlippageTolerance{Pct: pct}, 0.2, 6)
		require.NoError(t, err)
		if previous >= 0 {
			assert.LessOrEqual(t, result.MinOutHuman, previous,
				"minOut increased when slippage went up to %v", pct)
		}
		previous = result.MinOutHuman
	}
}

// A tolerance above 100% clamps the factor at zero, never negative.
func TestComputeQuote_FactorClamped(t *testing.T) {
	result, err := ComputeQuote(100, floatPtr(0.01), floatPtr(0.02), SlippageTolerance{Pct: 150}, 0.2, 6)
	require.NoError(t, err)
	assert.Zero(t, result.MinOutHuman)
	assert.Equal(t, "0", result.MinOut.String())
}

func TestComputeQuote_Idempotent(t *testing.T) {
	first, err := ComputeQuote(42.5, floatPtr(0.37), floatPtr(1.21), SlippageTolerance{Pct: 2}, 0.2, 9)
	require.NoError(t, err)
	second, err := ComputeQuote(42.5, floatPtr(0.37), floatPtr(1.21), SlippageTolerance{Pct: 2}, 0.2, 9)
	require.NoError(t, err)

	assert.Equal(t, first.EstimatedOut, second.EstimatedOut)
	assert.Equal(t, first.EffectiveTolerancePct, second.EffectiveTolerancePct)
	assert.Equal(t, first.MinOutHuman, second.MinOutHuman)
	assert.Equal(t, first.MinOut.String(), second.MinOut.String())
}

func TestMinOutBaseUnits(t *testing.T) {
	minOut := minOutBaseUnits(48.4, 6)
	assert.Equal(t, "48400000", minOut.String())

	assert.Equal(t, "0", minOutBaseUnits(0, 6).String())
	assert.Equal(t, "0", minOutBaseUnits(-1, 6).String())
}

func TestParseSlippage(t *testing.T) {
	tol, err := ParseSlippage("3", 3)
	require.NoError(t, err)
	assert.False(t, tol.Unlimited)
	assert.Equal(t, 3.0, tol.Pct)

	tol, err = ParseSlippage("nolimit", 3)
	require.NoError(t, err)
	assert.True(t, tol.Unlimited)
	assert.Equal(t, "unlimited", tol.String())

	tol, err = ParseSlippage("unlimited", 3)
	require.NoError(t, err)
	assert.True(t, tol.Unlimited)

	tol, err = ParseSlippage("", 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, tol.Pct)

	for _, bad := range []string{"-1", "abc", "NaN", "Inf"} {
		_, err = ParseSlippage(bad, 3)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "input %q", bad)
	}
}
