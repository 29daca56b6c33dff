package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/tui/components"
	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

const overviewJurisdictionLimit = 8

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary
	var b strings.Builder

	if a.loadErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		b.WriteString(components.ContentCard("Load error", warn.Render(a.loadErr.Error()), cw))
		b.WriteString("\n")
	}

	if s.Cases == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		b.WriteString(components.ContentCard("Portfolio",
			muted.Render("No cases found in "+a.opts.CasesDir+". Add *.json case files and press r."), cw))
		return b.String()
	}

	savingsNote := ""
	if s.TaxNoPlan > 0 {
		savingsNote = fmt.Sprintf("%.0f%% of no-plan tax", s.Savings/s.TaxNoPlan*100)
	}
	metrics := []components.Metric{
		{Label: "Cases", Value: cli.FormatNumber(int64(s.Cases)), Note: fmt.Sprintf("%d married", s.MarriedCases)},
		{Label: "Gross Estate", Value: cli.FormatCurrencyShort(s.TotalEstate), Note: "debts " + cli.FormatCurrencyShort(s.TotalDebts)},
		{Label: "Tax Without Plan", Value: cli.FormatCurrencyShort(s.TaxNoPlan), Color: t.Tax()},
		{Label: "Plan Savings", Value: cli.FormatCurrencyShort(s.Savings), Note: savingsNote, Color: t.Savings()},
	}
	if a.opts.IncludeFederal {
		metrics = append(metrics, components.Metric{
			Label: "State + Federal",
			Value: cli.FormatCurrencyShort(s.CombinedTax),
			Note:  "federal " + cli.FormatCurrencyShort(s.FederalTax),
			Color: t.Tax(),
		})
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	halves := components.LayoutRow(cw, 2)
	jurisCard := components.ContentCard("Tax Without Plan by Jurisdiction", a.jurisdictionBars(components.CardInnerWidth(halves[0])), halves[0])
	mixCard := components.ContentCard("Plans & Trust Funding", a.planMixBody(components.CardInnerWidth(halves[1])), halves[1])

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Tax Without Plan by Jurisdiction", a.jurisdictionBars(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Plans & Trust Funding", a.planMixBody(components.CardInnerWidth(cw)), cw))
	} else {
		b.WriteString(components.CardRow([]string{jurisCard, mixCard}))
	}

	if notes := a.dataNotes(); notes != "" {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Data", notes, cw))
	}
	return b.String()
}

func (a App) jurisdictionBars(innerW int) string {
	rows := make([]components.BarRow, 0, overviewJurisdictionLimit)
	for i, js := range a.byJuris {
		if i == overviewJurisdictionLimit {
			break
		}
		rows = append(rows, components.BarRow{
			Label: fmt.Sprintf("%-3s %2d", js.Key, js.Cases),
			Value: js.TaxNoPlan,
			Text:  cli.FormatCurrencyShort(js.TaxNoPlan),
		})
	}
	return components.HorizontalBars(rows, theme.Active.Tax(), innerW)
}

func (a App) planMixBody(innerW int) string {
	t := theme.Active
	s := a.summary
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	for _, p := range []model.PlanType{model.PlanIndividual, model.PlanAB, model.PlanABC} {
		fmt.Fprintf(&b, "%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-12s", p)),
			valueStyle.Render(cli.FormatNumber(int64(s.ByPlan[p]))))
	}
	b.WriteString("\n")

	const labelW = 12
	barW := max(innerW-labelW-6, 4)
	b.WriteString(components.ShareBar("In trust", ratio(s.TotalTrust, s.TotalEstate), labelW, barW))
	b.WriteString("\n")
	b.WriteString(components.ShareBar("Tax saved", ratio(s.Savings, s.TaxNoPlan), labelW, barW))
	return b.String()
}

// dataNotes summarizes parse problems and unresolved jurisdictions.
func (a App) dataNotes() string {
	t := theme.Active
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	unknown := 0
	for _, an := range a.analyses {
		if an.UnknownJurisdiction {
			unknown++
		}
	}

	var notes []string
	if a.fileErrors > 0 {
		notes = append(notes, fmt.Sprintf("%d case files could not be read", a.fileErrors))
	}
	if a.parseErrors > 0 {
		notes = append(notes, fmt.Sprintf("%d values could not be parsed and were counted as $0", a.parseErrors))
	}
	if unknown > 0 {
		notes = append(notes, fmt.Sprintf("%d cases name an unknown jurisdiction; %s used instead", unknown, a.opts.FallbackJurisdiction))
	}
	for i, n := range notes {
		notes[i] = warn.Render("! " + n)
	}
	return strings.Join(notes, "\n")
}

func ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole
}
