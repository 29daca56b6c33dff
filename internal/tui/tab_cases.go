package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/pipeline"
	"github.com/theirongolddev/estateplan/internal/tui/components"
	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

// Cases view modes. Split is the zero value so it is the default.
const (
	casesViewSplit  = iota // list + detail side by side
	casesViewDetail        // full-width detail
)

// casesState holds the cases tab state.
type casesState struct {
	cursor       int
	offset       int // scroll offset for the list
	detailScroll int
	viewMode     int

	searching   bool
	searchInput textinput.Model
	searchQuery string
}

func (s *casesState) clamp(n int) {
	s.cursor = clampIndex(s.cursor, n)
	if s.offset > s.cursor {
		s.offset = s.cursor
	}
}

func (s *casesState) move(delta, n int) {
	next := clampIndex(s.cursor+delta, n)
	if next != s.cursor {
		s.cursor = next
		s.detailScroll = 0
	}
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "client, id, jurisdiction, or plan"
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "/ "
	return ti
}

// searchFilteredCases returns analyses matching the current search query.
func (a App) searchFilteredCases() []pipeline.CaseAnalysis {
	return filterCasesBySearch(a.analyses, a.casesState.searchQuery)
}

func filterCasesBySearch(analyses []pipeline.CaseAnalysis, query string) []pipeline.CaseAnalysis {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return analyses
	}
	var out []pipeline.CaseAnalysis
	for _, an := range analyses {
		hay := strings.ToLower(strings.Join([]string{
			an.Case.CaseID,
			an.Case.ClientName,
			an.State.Key,
			an.State.Name,
			string(an.Snapshot.PlanType),
		}, " "))
		if strings.Contains(hay, q) {
			out = append(out, an)
		}
	}
	return out
}

// updateCasesKey handles keys for the cases tab. ok is false when the key
// should fall through to global bindings.
func (a App) updateCasesKey(key string) (tea.Model, tea.Cmd, bool) {
	cs := &a.casesState
	n := len(a.searchFilteredCases())
	compact := a.isCompactLayout()

	switch key {
	case "/":
		cs.searching = true
		cs.searchInput = newSearchInput()
		cs.searchInput.SetValue(cs.searchQuery)
		cs.searchInput.Focus()
		return a, textinput.Blink, true
	case "q":
		if !compact && cs.viewMode == casesViewDetail {
			cs.viewMode = casesViewSplit
			return a, nil, true
		}
		return a, tea.Quit, true
	case "enter", "f":
		if !compact {
			cs.viewMode = casesViewDetail
		}
		return a, nil, true
	case "esc":
		switch {
		case cs.searchQuery != "":
			cs.searchQuery = ""
			cs.cursor, cs.offset = 0, 0
		case cs.viewMode == casesViewDetail:
			cs.viewMode = casesViewSplit
		}
		return a, nil, true
	case "j", "down":
		cs.move(1, n)
		return a, nil, true
	case "k", "up":
		cs.move(-1, n)
		return a, nil, true
	case "g":
		cs.cursor, cs.offset, cs.detailScroll = 0, 0, 0
		return a, nil, true
	case "G":
		cs.cursor = clampIndex(n-1, n)
		cs.detailScroll = 0
		return a, nil, true
	case "J":
		cs.detailScroll++
		return a, nil, true
	case "K":
		cs.detailScroll = max(cs.detailScroll-1, 0)
		return a, nil, true
	case "ctrl+d":
		cs.detailScroll += a.halfPage()
		return a, nil, true
	case "ctrl+u":
		cs.detailScroll = max(cs.detailScroll-a.halfPage(), 0)
		return a, nil, true
	}
	return a, nil, false
}

func (a App) halfPage() int {
	return max((a.height-scrollOverhead)/2, minHalfPageScroll)
}

// updateCasesSearch handles key events while in search mode.
func (a App) updateCasesSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.casesState.searchQuery = strings.TrimSpace(a.casesState.searchInput.Value())
		a.casesState.searching = false
		a.casesState.cursor, a.casesState.offset, a.casesState.detailScroll = 0, 0, 0
		return a, nil
	case "esc":
		a.casesState.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.casesState.searchInput, cmd = a.casesState.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderCasesTab(cw, h int) string {
	t := theme.Active
	cases := a.searchFilteredCases()

	var header string
	if a.casesState.searching {
		header = a.casesState.searchInput.View() + "\n"
		h--
	} else if a.casesState.searchQuery != "" {
		header = lipgloss.NewStyle().Foreground(t.TextMuted).Render(
			fmt.Sprintf("filter: %q (%d matches, esc to clear)", a.casesState.searchQuery, len(cases))) + "\n"
		h--
	}

	if len(cases) == 0 {
		return header + components.ContentCard("Cases",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No cases found"), cw)
	}

	if a.isCompactLayout() || a.casesState.viewMode == casesViewSplit {
		return header + a.renderCasesSplit(cases, cw, h)
	}
	return header + a.renderCaseDetail(cases[a.casesState.cursor], cw, h)
}

func (a App) renderCasesSplit(cases []pipeline.CaseAnalysis, cw, h int) string {
	t := theme.Active
	cs := a.casesState

	leftW := max(cw*2/5, 36)
	rightW := cw - leftW
	leftInner := components.CardInnerWidth(leftW)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	visible := max(h-3, 5) // card border + title
	offset := cs.offset
	if cs.cursor < offset {
		offset = cs.cursor
	}
	if cs.cursor >= offset+visible {
		offset = cs.cursor - visible + 1
	}
	end := min(offset+visible, len(cases))

	nameW := max(leftInner-19, 6)
	var list strings.Builder
	for i := offset; i < end; i++ {
		an := cases[i]
		line := fmt.Sprintf("%-*s %-3s %-4s %9s",
			nameW, truncStr(an.Case.ClientName, nameW),
			an.State.Key,
			an.Snapshot.PlanType,
			cli.FormatCurrencyShort(an.Snapshot.TotalValue))
		line = truncStr(line, leftInner)
		line += strings.Repeat(" ", max(leftInner-lipgloss.Width(line), 0))

		if i == cs.cursor {
			list.WriteString(selectedStyle.Render(line))
		} else {
			list.WriteString(rowStyle.Render(line))
		}
		if i < end-1 {
			list.WriteString("\n")
		}
	}

	leftCard := components.ContentCard(fmt.Sprintf("Cases (%d)", len(cases)), list.String(), leftW)
	rightCard := a.renderCaseDetail(cases[cs.cursor], rightW, h)
	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) renderCaseDetail(an pipeline.CaseAnalysis, w, h int) string {
	body := caseDetailBody(an, w, a.opts.IncludeFederal)

	// Apply detail scroll, keeping room for the card frame.
	lines := strings.Split(body, "\n")
	scroll := min(a.casesState.detailScroll, max(len(lines)-1, 0))
	lines = lines[scroll:]
	if limit := h - 3; limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}

	title := fmt.Sprintf("%s  %s", an.Case.CaseID, an.Case.ClientName)
	return components.ContentCard(truncStr(title, components.CardInnerWidth(w)), strings.Join(lines, "\n"), w)
}

// caseDetailBody renders the full analysis for a case.
func caseDetailBody(an pipeline.CaseAnalysis, w int, includeFederal bool) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	taxStyle := lipgloss.NewStyle().Foreground(t.Tax()).Background(t.Surface)
	saveStyle := lipgloss.NewStyle().Foreground(t.Savings()).Background(t.Surface).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	rule := labelStyle.Render(strings.Repeat("─", innerW))

	kv := func(b *strings.Builder, label string, value string) {
		fmt.Fprintf(b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-18s", label)), value)
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%s (%s) · %s · %d grantor(s)",
		an.State.Name, an.State.Key, an.Snapshot.PlanType, an.Snapshot.GrantorCount)))
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	if an.UnknownJurisdiction {
		b.WriteString(warnStyle.Render(fmt.Sprintf("! unknown jurisdiction %q", an.Case.Jurisdiction)))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render("ESTATE"))
	b.WriteString("\n")
	kv(&b, "Gross estate", valueStyle.Render(cli.FormatCurrency(an.Snapshot.TotalValue)))
	kv(&b, "  in trust", valueStyle.Render(cli.FormatCurrency(an.Snapshot.TrustValue)))
	kv(&b, "  outside trust", valueStyle.Render(cli.FormatCurrency(an.Snapshot.NonTrustValue)))
	kv(&b, "Debts & expenses", valueStyle.Render(cli.FormatCurrency(an.Case.DebtsAndExpenses)))
	kv(&b, "Net estate", valueStyle.Render(cli.FormatCurrency(an.NetEstate)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("TAX"))
	b.WriteString("\n")
	kv(&b, an.State.Key+" tax", taxStyle.Render(cli.FormatCents(an.StateTax)))
	if includeFederal {
		kv(&b, "Federal tax", taxStyle.Render(cli.FormatCents(an.Combined.Federal)))
		kv(&b, "Combined", taxStyle.Render(cli.FormatCents(an.Combined.Total)))
	}
	b.WriteString("\n")

	if an.Snapshot.PlanType.IsMarried() {
		b.WriteString(headerStyle.Render("PLAN SAVINGS · " + strings.ToUpper(an.Planning.Name)))
		b.WriteString("\n")
		kv(&b, "Without plan", taxStyle.Render(cli.FormatCents(an.Savings.TaxNoPlan)))
		kv(&b, "With plan", valueStyle.Render(cli.FormatCents(an.Savings.TaxWithPlan)))
		kv(&b, "Savings", saveStyle.Render(cli.FormatCents(an.Savings.Savings)))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render("FUNDING AT FIRST DEATH"))
	b.WriteString("\n")
	f := an.Funding
	if f.Family > 0 {
		kv(&b, "Family trust", valueStyle.Render(cli.FormatCurrency(f.Family)))
	} else {
		kv(&b, "Bypass (A)", valueStyle.Render(cli.FormatCurrency(f.Bypass)))
		kv(&b, "QTIP (C)", valueStyle.Render(cli.FormatCurrency(f.QTIP)))
		kv(&b, "Survivor (B)", valueStyle.Render(cli.FormatCurrency(f.Survivor)))
	}

	if len(an.Case.Assets) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("ASSETS (%d)", len(an.Case.Assets))))
		b.WriteString("\n")
		descW := max(innerW-20, 10)
		for _, as := range an.Case.Assets {
			marker := " "
			if as.HeldInTrust {
				marker = "T"
			}
			b.WriteString(valueStyle.Render(fmt.Sprintf("%s %-*s %16s",
				marker, descW, truncStr(as.Description, descW), cli.FormatCurrency(as.Value.InexactFloat64()))))
			b.WriteString("\n")
		}
	}

	for _, note := range an.State.Advisories() {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("! " + note))
	}

	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("[Enter] expand  [j/k] navigate  [J/K] scroll  [/] search"))
	return b.String()
}
