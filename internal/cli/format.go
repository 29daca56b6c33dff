// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrency formats whole dollars with comma separators.
// e.g., 1250000.4 -> "$1,250,000", -5000 -> "-$5,000"
func FormatCurrency(v float64) string {
	if math.IsNaN(v) {
		return "$0"
	}
	if math.IsInf(v, 0) {
		return "∞"
	}
	if v < 0 {
		return "-" + FormatCurrency(-v)
	}
	return "$" + FormatNumber(int64(math.Round(v)))
}

// FormatCents formats dollars and cents.
// e.g., 30600 -> "$30,600.00"
func FormatCents(v float64) string {
	if v < 0 {
		return "-" + FormatCents(-v)
	}
	cents := int64(math.Round(v * 100))
	return fmt.Sprintf("$%s.%02d", FormatNumber(cents/100), cents%100)
}

// FormatCurrencyShort formats a dollar amount with a magnitude suffix.
// e.g., 1250000 -> "$1.25M", 15000 -> "$15K", 950 -> "$950"
func FormatCurrencyShort(v float64) string {
	if v < 0 {
		return "-" + FormatCurrencyShort(-v)
	}

	switch {
	case math.IsInf(v, 1):
		return "∞"
	case v >= 1_000_000_000:
		return "$" + trimZeros(v/1_000_000_000) + "B"
	case v >= 1_000_000:
		return "$" + trimZeros(v/1_000_000) + "M"
	case v >= 1_000:
		return "$" + trimZeros(v/1_000) + "K"
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func trimZeros(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string with one decimal.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatRate formats a tax rate without trailing zeros.
// e.g., 0.16 -> "16%", 0.1025 -> "10.25%", 0.0306 -> "3.06%"
func FormatRate(r float64) string {
	return trimZeros(r*100) + "%"
}

// FormatDelta formats a dollar change with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCurrency(delta)
	}
	return "-" + FormatCurrency(-delta)
}

// FormatBound formats a bracket upper bound, using "and up" for the open top bracket.
func FormatBound(upTo float64) string {
	if math.IsInf(upTo, 1) {
		return "and up"
	}
	return FormatCurrency(upTo)
}

// FormatYesNo renders a flag for table cells.
func FormatYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
