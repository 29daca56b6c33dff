package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,250,000.00", 1_250_000},
		{"1250000", 1_250_000},
		{" (5,000) ", -5_000},
		{"-$42.50", -42.50},
		{"", 0},
		{"   ", 0},
		{"$0.005", 0.01},
		{"12.344", 12.34},
	}

	for _, tt := range tests {
		got, err := ParseCurrencyFloat(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.in)
	}
}

func TestParseCurrency_Invalid(t *testing.T) {
	for _, in := range []string{"abc", "$", "1e6", "1.2.3", "--5", "$1,2x0"} {
		_, err := ParseCurrency(in)
		assert.ErrorIs(t, err, ErrInvalidCurrency, "input %q", in)
	}
}

func FuzzParseCurrency(f *testing.F) {
	for _, seed := range []string{"$1,000", "(5)", "", "12.5", "$-", "()"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		d, err := ParseCurrency(s)
		if err != nil && !d.IsZero() {
			t.Fatalf("error with non-zero value for %q", s)
		}
	})
}
