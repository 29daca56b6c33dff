package cli

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999.49, "$999"},
		{1_250_000.4, "$1,250,000"},
		{-5_000, "-$5,000"},
		{math.Inf(1), "∞"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$30,600.00", FormatCents(30_600))
	assert.Equal(t, "$0.05", FormatCents(0.05))
	assert.Equal(t, "-$1,000.50", FormatCents(-1000.5))
}

func TestFormatCurrencyShort(t *testing.T) {
	assert.Equal(t, "$1.25M", FormatCurrencyShort(1_250_000))
	assert.Equal(t, "$15M", FormatCurrencyShort(15_000_000))
	assert.Equal(t, "$15K", FormatCurrencyShort(15_000))
	assert.Equal(t, "$950", FormatCurrencyShort(950))
	assert.Equal(t, "$2.1B", FormatCurrencyShort(2_100_000_000))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "16%", FormatRate(0.16))
	assert.Equal(t, "10.25%", FormatRate(0.1025))
	assert.Equal(t, "3.06%", FormatRate(0.0306))
	assert.Equal(t, "0%", FormatRate(0))
}

func TestFormatBound(t *testing.T) {
	assert.Equal(t, "and up", FormatBound(math.Inf(1)))
	assert.Equal(t, "$1,500,000", FormatBound(1_500_000))
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Rates",
		Headers: []string{"Key", "Rate"},
		Rows: [][]string{
			{"OR", "16%"},
			SeparatorRow,
			{"NY", "3.06%"},
		},
	})

	assert.Contains(t, out, "Rates")
	assert.Contains(t, out, "OR")
	assert.Contains(t, out, "3.06%")
	// title + top + header + rule + row + separator + row + bottom
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 8)
	assert.Empty(t, RenderTable(Table{}))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "-$180,000", FormatDelta(20_000, 200_000))
	assert.Equal(t, "+$5,000", FormatDelta(10_000, 5_000))
	assert.Equal(t, "+$0", FormatDelta(1, 1))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Empty(t, RenderProgressBar(1, 0, 10))
	out := RenderProgressBar(1_500, 3_000, 10)
	assert.Contains(t, out, "1,500/3,000")
	assert.Equal(t, 5, strings.Count(out, "█"))
}

func TestRenderHorizontalBar(t *testing.T) {
	out := RenderHorizontalBar("OR", 4, 50, 100, 20)
	assert.Equal(t, 10, strings.Count(out, "█"))
	assert.Equal(t, 10, strings.Count(out, "░"))
	assert.Equal(t, 20, strings.Count(RenderHorizontalBar("NY", 4, 0, 0, 20), "░"))
}
