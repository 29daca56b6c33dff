package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, tc := range []struct{ total, n int }{{100, 3}, {81, 4}, {7, 7}, {10, 1}} {
		widths := LayoutRow(tc.total, tc.n)
		require.Len(t, widths, tc.n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		assert.Equal(t, tc.total, sum)
	}
	assert.Nil(t, LayoutRow(10, 0))
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	require.Less(t, shortLines, tallLines)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	assert.Len(t, lines, tallLines)

	for i := shortLines; i < len(lines); i++ {
		assert.Contains(t, lines[i], "\x1b[", "line %d has no styling", i)
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Cases", Value: "12"},
		{Label: "Tax", Value: "$1.2M", Color: theme.Active.Tax()},
		{Label: "Savings", Value: "$400K", Note: "33% of tax"},
	}, 90)
	for _, line := range strings.Split(row, "\n") {
		assert.Equal(t, 90, lipgloss.Width(line))
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 200)
		want := 0
		for i, tab := range Tabs {
			want += TabVisualWidth(tab, i == active)
		}
		want += len(Tabs) - 1
		want-- // trailing pad is trimmed below
		assert.Equal(t, want, lipgloss.Width(strings.TrimRight(stripANSI(bar), " ")))
	}
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey('o'))
	assert.Equal(t, 3, TabIdxByKey('x'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}

func TestHorizontalBarsScaling(t *testing.T) {
	out := stripANSI(HorizontalBars([]BarRow{
		{Label: "NY", Value: 100, Text: "$100"},
		{Label: "OR", Value: 50, Text: "$50"},
		{Label: "CA", Value: 0, Text: "$0"},
	}, theme.Active.Red, 30))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Greater(t, strings.Count(lines[0], "█"), strings.Count(lines[1], "█"))
	assert.Zero(t, strings.Count(lines[2], "█"))
	for _, l := range lines {
		assert.Equal(t, 30, lipgloss.Width(l))
	}
}

func TestShareBarClamps(t *testing.T) {
	assert.Contains(t, stripANSI(ShareBar("Saved", 1.7, 6, 10)), "100%")
	assert.Contains(t, stripANSI(ShareBar("Saved", -1, 6, 10)), "  0%")
}

func TestSparklineEmpty(t *testing.T) {
	assert.Empty(t, Sparkline(nil, theme.Active.Blue))
	assert.Equal(t, 4, lipgloss.Width(Sparkline([]float64{0, 1, 2, 3}, theme.Active.Blue)))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
