package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplyFloat(t *testing.T) {
	// base-unit integer strings are scaled by decimals
	v := supplyFloat("1000000000000000000", 18)
	require.NotNil(t, v)
	assert.InDelta(t, 1.0, *v, 1e-12)

	// non-integer strings are taken as already-scaled numbers
	v = supplyFloat("123.45", 18)
	require.NotNil(t, v)
	assert.InDelta(t, 123.45, *v, 1e-9)

	v = supplyFloat(float64(42), 18)
	require.NotNil(t, v)
	assert.Equal(t, 42.0, *v)

	assert.Nil(t, supplyFloat(nil, 18))
	assert.Nil(t, supplyFloat("garbage", 18))
}

func TestDecimalsOrDefault(t *testing.T) {
	assert.Equal(t, uint8(6), decimalsOrDefault("6"))
	assert.Equal(t, uint8(18), decimalsOrDefault(float64(18)))
	assert.Equal(t, uint8(18), decimalsOrDefault(nil))
	assert.Equal(t, uint8(18), decimalsOrDefault("not a number"))
	assert.Equal(t, uint8(18), decimalsOrDefault("300"))
}

func TestBalanceString(t *testing.T) {
	assert.Equal(t, "123456789", balanceString("123456789"))
	assert.Equal(t, "1000", balanceString(float64(1000)))
	assert.Equal(t, "0", balanceString("1.5"))
	assert.Equal(t, "0", balanceString(nil))
	assert.Equal(t, "0", balanceString("abc"))
}
