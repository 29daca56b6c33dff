package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidCurrency is returned when a value cannot be read as money.
var ErrInvalidCurrency = errors.New("invalid currency value")

// ParseCurrency reads a user-entered dollar amount.
//
//	"$1,250,000.00" -> 1250000
//	" (5,000) "     -> -5000
//	""              -> 0
func ParseCurrency(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if s == "" || strings.ContainsAny(s, "+-eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, s)
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(2), nil
}

// ParseCurrencyFloat is ParseCurrency for callers that work in float64.
func ParseCurrencyFloat(s string) (float64, error) {
	d, err := ParseCurrency(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
