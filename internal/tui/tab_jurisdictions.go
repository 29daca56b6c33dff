package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/taxcalc"
	"github.com/theirongolddev/estateplan/internal/tui/components"
	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

// jurisdictionsState holds the jurisdictions tab cursor.
type jurisdictionsState struct {
	cursor int
	offset int
}

func (s *jurisdictionsState) clamp(n int) {
	s.cursor = clampIndex(s.cursor, n)
}

func (s *jurisdictionsState) move(delta, n int) {
	s.cursor = clampIndex(s.cursor+delta, n)
}

func (a *App) updateJurisdictionsKey(key string) bool {
	n := len(config.Keys())
	switch key {
	case "j", "down":
		a.jurisState.move(1, n)
	case "k", "up":
		a.jurisState.move(-1, n)
	case "g":
		a.jurisState.cursor = 0
	case "G":
		a.jurisState.cursor = clampIndex(n-1, n)
	default:
		return false
	}
	return true
}

func (a App) renderJurisdictionsTab(cw, h int) string {
	t := theme.Active
	all := config.All()
	if len(all) == 0 {
		return components.ContentCard("Jurisdictions", "", cw)
	}
	js := a.jurisState

	cases := make(map[string]int, len(a.byJuris))
	for _, s := range a.byJuris {
		cases[s.Key] = s.Cases
	}

	leftW := max(cw/3, 34)
	rightW := cw - leftW
	leftInner := components.CardInnerWidth(leftW)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	visible := max(h-3, 5)
	offset := js.offset
	if js.cursor < offset {
		offset = js.cursor
	}
	if js.cursor >= offset+visible {
		offset = js.cursor - visible + 1
	}
	end := min(offset+visible, len(all))

	nameW := max(leftInner-12, 6)
	var list strings.Builder
	for i := offset; i < end; i++ {
		j := all[i]
		count := ""
		if n := cases[j.Key]; n > 0 {
			count = fmt.Sprintf("%d", n)
		}
		line := fmt.Sprintf("%-3s %-*s %4s", j.Key, nameW, truncStr(j.Name, nameW), count)
		line += strings.Repeat(" ", max(leftInner-lipgloss.Width(line), 0))

		switch {
		case i == js.cursor:
			list.WriteString(selectedStyle.Render(line))
		case !j.HasEstateTax():
			list.WriteString(dimStyle.Render(line))
		default:
			list.WriteString(rowStyle.Render(line))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	sel := all[js.cursor]
	leftCard := components.ContentCard("Jurisdictions", list.String(), leftW)
	rightCard := components.ContentCard(fmt.Sprintf("%s (%s)", sel.Name, sel.Key),
		jurisdictionDetailBody(sel, cases[sel.Key], rightW), rightW)
	return components.CardRow([]string{leftCard, rightCard})
}

func jurisdictionDetailBody(j model.Jurisdiction, caseCount, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	kv := func(b *strings.Builder, label, value string) {
		fmt.Fprintf(b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-16s", label)), valueStyle.Render(value))
	}

	var b strings.Builder
	kv(&b, "Schedule", j.Kind.String())
	if !j.HasEstateTax() {
		kv(&b, "Exemption", "no estate tax")
	} else {
		kv(&b, "Exemption", cli.FormatCurrency(j.Exemption))
		kv(&b, "Top rate", cli.FormatRate(j.TopRate()))
	}
	if j.GSTExemption > 0 {
		kv(&b, "GST exemption", cli.FormatCurrency(j.GSTExemption))
	}
	kv(&b, "Cases", cli.FormatNumber(int64(caseCount)))

	if j.Kind == model.Progressive && len(j.Brackets) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("%16s %16s %8s", "OVER", "UP TO", "RATE")))
		b.WriteString("\n")
		lower := 0.0
		for _, br := range j.Brackets {
			b.WriteString(valueStyle.Render(fmt.Sprintf("%16s %16s %8s",
				cli.FormatCurrency(lower), cli.FormatBound(br.UpTo), cli.FormatRate(br.Rate))))
			b.WriteString("\n")
			lower = br.UpTo
		}
	}

	if j.HasEstateTax() {
		top := curveCeiling(j)
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("TAX CURVE"))
		b.WriteString(labelStyle.Render(fmt.Sprintf("  $0 to %s", cli.FormatCurrencyShort(top))))
		b.WriteString("\n")
		b.WriteString(components.Sparkline(taxCurve(j, top, min(innerW, 60)), t.Tax()))
		b.WriteString("\n")
	}

	for _, note := range j.Advisories() {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("! " + note))
	}
	return b.String()
}

// curveCeiling picks an estate size that shows the whole rate schedule.
func curveCeiling(j model.Jurisdiction) float64 {
	top := j.Exemption * 3
	for _, br := range j.Brackets {
		if !math.IsInf(br.UpTo, 1) && br.UpTo*1.25 > top {
			top = br.UpTo * 1.25
		}
	}
	if top <= 0 {
		top = 10_000_000
	}
	return top
}

// taxCurve samples ComputeTax at n evenly spaced estate sizes up to top.
func taxCurve(j model.Jurisdiction, top float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		estate := top * float64(i) / float64(n-1)
		out[i] = taxcalc.ComputeTax(estate, j)
	}
	return out
}
