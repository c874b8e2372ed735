package utils

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid lowercase", "0x" + strings.Repeat("ab", 20), true},
		{"valid uppercase", "0x" + strings.Repeat("AB", 20), true},
		{"valid mixed", "0x53859FAe789c92dceB8c9aF61b13e458C4313fe7", true},
		{"valid digits", "0x" + strings.Repeat("12", 20), true},
		{"empty", "", false},
		{"missing prefix", strings.Repeat("ab", 20), false},
		{"wrong prefix", "1x" + strings.Repeat("ab", 20), false},
		{"too short", "0x" + strings.Repeat("ab", 19), false},
		{"too long", "0x" + strings.Repeat("ab", 21), false},
		{"non-hex char", "0x" + strings.Repeat("ab", 19) + "zz", false},
		{"leading space", " 0x" + strings.Repeat("ab", 20), false},
		{"trailing space", "0x" + strings.Repeat("ab", 20) + " ", false},
		{"uppercase prefix", "0X" + strings.Repeat("ab", 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAddress(tt.input))
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		input    string
		decimals uint8
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"0.5", 18, "500000000000000000"},
		{"123.456", 6, "123456000"},
		{"0", 18, "0"},
		{"0.000001", 6, "1"},
		{"42", 0, "42"},
		{"1.", 2, "100"},
		{".5", 2, "50"},
		// fractional digits beyond the token's decimals are truncated
		{"1.23456789", 4, "12345"},
		{"0.9999", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%d", tt.input, tt.decimals), func(t *testing.T) {
			got, err := ToBaseUnits(tt.input, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestToBaseUnits_Invalid(t *testing.T) {
	for _, input := range []string{"", "-1", "+1", "1e18", "abc", "1.2.3", "0x10", "NaN", "Inf", "."} {
		t.Run(input, func(t *testing.T) {
			_, err := ToBaseUnits(input, 18)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestToHumanUnits(t *testing.T) {
	tests := []struct {
		base     string
		decimals uint8
		want     string
	}{
		{"1000000000000000000", 18, "1"},
		{"500000000000000000", 18, "0.5"},
		{"123456000", 6, "123.456"},
		{"0", 18, "0"},
		{"1", 6, "0.000001"},
		{"42", 0, "42"},
	}

	for _, tt := range tests {
		base, ok := new(big.Int).SetString(tt.base, 10)
		require.True(t, ok)
		assert.Equal(t, tt.want, ToHumanUnits(base, tt.decimals))
	}
}

// Round-trip: any decimal string with at most d fractional digits survives
// ToBaseUnits then ToHumanUnits unchanged in value, for every d in [0,18].
func TestUnitsRoundTrip(t *testing.T) {
	samples := []string{"1", "0.5", "123.25", "0.0001", "999999.999999", "7"}

	for d := uint8(0); d <= 18; d++ {
		for _, sample := range samples {
			frac := ""
			if dot := strings.IndexByte(sample, '.'); dot >= 0 {
				frac = sample[dot+1:]
			}
			if len(frac) > int(d) {
				continue
			}

			base, err := ToBaseUnits(sample, d)
			require.NoError(t, err)
			back := ToHumanUnits(base, d)

			wantBase, err := ToBaseUnits(back, d)
			require.NoError(t, err)
			assert.Equal(t, 0, base.Cmp(wantBase),
				"round trip mismatch for %s at %d decimals: got %s", sample, d, back)
		}
	}
}

func TestToDisplayFloat(t *testing.T) {
	base, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.InDelta(t, 1.5, ToDisplayFloat(base, 18), 1e-12)
	assert.Equal(t, float64(0), ToDisplayFloat(nil, 18))
}

func TestMaxUint256(t *testing.T) {
	// 2^256 - 1
	expected := new(big.Int).Sub(new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil), big.NewInt(1))
	assert.Equal(t, 0, MaxUint256.Cmp(expected))
}

func TestFormatFloatAmount(t *testing.T) {
	assert.Equal(t, "48.4", FormatFloatAmount(48.4, 6))
	assert.Equal(t, "50", FormatFloatAmount(50.0, 6))
	assert.Equal(t, "0.123457", FormatFloatAmount(0.1234567, 6))
}
