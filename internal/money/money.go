// Package money converts between printed currency amounts and integer cents.
// Nothing outside this package handles amounts as floating point.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ParseCents parses strings like "$1,234.56", "USD 12.00", "(4.50)" or "7"
// into cents. Parenthesised or minus-prefixed values are negative.
func ParseCents(s string) (int64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, ErrInvalidAmount
	}
	negative := strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")")

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-':
			negative = true
		}
	}
	cleaned := b.String()
	if cleaned == "" || strings.Count(cleaned, ".") > 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Mul(hundred).Round(0).IntPart()
	if negative {
		cents = -cents
	}
	return cents, nil
}

// Format renders cents as a plain two-decimal string ("108.50").
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatUSD renders cents with a dollar sign ("$108.50", "-$3.00").
func FormatUSD(cents int64) string {
	if cents < 0 {
		return "-$" + Format(-cents)
	}
	return "$" + Format(cents)
}

// MulQuantity multiplies a unit price by a possibly fractional quantity,
// rounding half away from zero to the nearest cent.
func MulQuantity(unitCents int64, qty float64) int64 {
	return decimal.NewFromFloat(qty).Mul(decimal.NewFromInt(unitCents)).Round(0).IntPart()
}

// Abs returns |cents|.
func Abs(cents int64) int64 {
	if cents < 0 {
		return -cents
	}
	return cents
}

// Within reports whether a and b differ by at most tol cents.
func Within(a, b, tol int64) bool {
	return Abs(a-b) <= tol
}

// Ptr returns a pointer to v, for optional amount fields.
func Ptr(v int64) *int64 {
	return &v
}
