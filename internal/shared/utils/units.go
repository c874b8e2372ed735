package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount = fmt.Errorf("Invalid token amount")
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	amountPattern  = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$|^\.[0-9]+$`)
)

// IsAddress reports whether s is exactly "0x" followed by 40 hex digits.
// Any other length or prefix is rejected.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ToBaseUnits converts a human-readable decimal string to an unsigned
// integer amount in base units at the given decimal count. Fractional
// digits beyond decimals are truncated, so a display-derived amount can
// only shrink, never grow, the value actually submitted on chain.
func ToBaseUnits(human string, decimals uint8) (*big.Int, error) {
	s := strings.TrimSpace(human)
	if !amountPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, human)
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
		fracPart = s[dot+1:]
	}
	if len(fracPart) > int(decimals) {
		fracPart = fracPart[:decimals]
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))

	digits := intPart + fracPart
	if digits == "" {
		digits = "0"
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, human)
	}
	return value, nil
}

// ToHumanUnits is the exact inverse of ToBaseUnits: it renders a base-unit
// amount as a decimal string with no precision loss.
func ToHumanUnits(base *big.Int, decimals uint8) string {
	if base == nil {
		return "0"
	}
	s := base.String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	intPart := s[:len(s)-d]
	fracPart := strings.TrimRight(s[len(s)-d:], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// ToDisplayFloat converts a base-unit amount to a float for display only.
// Very large values lose precision here, which is acceptable because the
// on-chain amount is always carried as a big.Int.
func ToDisplayFloat(base *big.Int, decimals uint8) float64 {
	f, err := strconv.ParseFloat(ToHumanUnits(base, decimals), 64)
	if err != nil {
		return 0
	}
	return f
}

// FormatFloatAmount renders a float with a bounded number of fractional
// digits for the display boundary.
func FormatFloatAmount(v float64, maxFracDigits int) string {
	s := strconv.FormatFloat(v, 'f', maxFracDigits, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
