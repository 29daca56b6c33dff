package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/pipeline"
	"github.com/theirongolddev/estateplan/internal/tui/components"
	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

func testCases() []model.Case {
	couple := []model.Grantor{{Name: "Pat"}, {Name: "Sam"}}
	return []model.Case{
		{
			CaseID: "c-1", ClientName: "Alder Family", Jurisdiction: "OR", PlanType: model.PlanAB,
			Grantors: couple,
			Assets:   []model.Asset{{Description: "House", Value: decimal.NewFromInt(2_500_000), HeldInTrust: true}, {Description: "IRA", Value: decimal.NewFromInt(500_000)}},
		},
		{
			CaseID: "c-2", ClientName: "Birch", Jurisdiction: "CA",
			Grantors: []model.Grantor{{Name: "Lee"}},
			Assets:   []model.Asset{{Description: "Brokerage", Value: decimal.NewFromInt(1_000_000)}},
		},
		{
			CaseID: "c-3", ClientName: "Cedar Trust", Jurisdiction: "NY", PlanType: model.PlanABC,
			Grantors: couple,
			Assets:   []model.Asset{{Description: "Farm", Value: decimal.NewFromInt(20_000_000), HeldInTrust: true}},
		},
	}
}

// loadedApp returns an App with data loaded and setup already done.
func loadedApp(t *testing.T) App {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { theme.SetActive(theme.FlexokiDark.Name) })

	a := NewApp(Options{CasesDir: t.TempDir(), FallbackJurisdiction: "FED", IncludeFederal: true})
	a.needSetup = false
	a.width, a.height = 140, 40

	m, _ := a.Update(DataLoadedMsg{Result: &pipeline.LoadResult{Cases: testCases(), ParseErrors: 2}})
	return m.(App)
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			assert.Equal(t, i, a.tabAtX(pos+w/2), "active=%d tab=%d", active, i)
			pos += w + 1
		}
		assert.Equal(t, -1, a.tabAtX(pos+50))
	}
}

func TestDataLoadedComputesPortfolio(t *testing.T) {
	a := loadedApp(t)

	require.True(t, a.loaded)
	assert.Len(t, a.analyses, 3)
	assert.Equal(t, 3, a.summary.Cases)
	assert.Equal(t, 2, a.summary.MarriedCases)
	assert.InDelta(t, 23_000_000, a.summary.TotalEstate, 0.01)
	assert.Equal(t, 2, a.parseErrors)
	assert.Greater(t, a.summary.Savings, 0.0)

	// NY carries the largest no-plan tax.
	require.NotEmpty(t, a.byJuris)
	assert.Equal(t, "NY", a.byJuris[0].Key)
}

func TestFiltersApplyOnRecompute(t *testing.T) {
	a := loadedApp(t)
	a.opts.JurisdictionFilter = "oregon"
	a.recompute()
	require.Len(t, a.analyses, 1)
	assert.Equal(t, "c-1", a.analyses[0].Case.CaseID)

	a.opts.JurisdictionFilter = ""
	a.opts.PlanFilter = "individual"
	a.recompute()
	require.Len(t, a.analyses, 1)
	assert.Equal(t, "c-2", a.analyses[0].Case.CaseID)
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, "c")
	assert.Equal(t, tabCases, a.activeTab)
	a = press(t, a, "u")
	assert.Equal(t, tabJurisdictions, a.activeTab)
	a = press(t, a, "x")
	assert.Equal(t, tabSettings, a.activeTab)
	a = press(t, a, "right")
	assert.Equal(t, tabOverview, a.activeTab)
	a = press(t, a, "left")
	assert.Equal(t, tabSettings, a.activeTab)
}

func TestCasesNavigationAndSearch(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, "c", "j", "j", "j")
	assert.Equal(t, 2, a.casesState.cursor, "cursor stops at last case")

	a = press(t, a, "g")
	assert.Equal(t, 0, a.casesState.cursor)

	a = press(t, a, "/")
	require.True(t, a.casesState.searching)
	a = press(t, a, "c", "e", "d", "enter")
	assert.False(t, a.casesState.searching)
	assert.Equal(t, "ced", a.casesState.searchQuery)

	found := a.searchFilteredCases()
	require.Len(t, found, 1)
	assert.Equal(t, "c-3", found[0].Case.CaseID)

	a = press(t, a, "esc")
	assert.Empty(t, a.casesState.searchQuery)
	assert.Len(t, a.searchFilteredCases(), 3)
}

func TestCaseDetailToggle(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, "c", "enter")
	assert.Equal(t, casesViewDetail, a.casesState.viewMode)
	a = press(t, a, "esc")
	assert.Equal(t, casesViewSplit, a.casesState.viewMode)
}

func TestFilterCasesBySearch(t *testing.T) {
	analyses := pipeline.AnalyzeAll(testCases(), "FED", true)

	assert.Len(t, filterCasesBySearch(analyses, ""), 3)
	assert.Len(t, filterCasesBySearch(analyses, "new york"), 1)
	assert.Len(t, filterCasesBySearch(analyses, "ABC"), 1)
	assert.Empty(t, filterCasesBySearch(analyses, "zzz"))
}

func TestJurisdictionsCursorBounds(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, "u", "k")
	assert.Equal(t, 0, a.jurisState.cursor)

	a = press(t, a, "G")
	assert.Equal(t, len(config.Keys())-1, a.jurisState.cursor)
}

func TestSettingsToggleFederalRecomputes(t *testing.T) {
	a := loadedApp(t)
	before := a.summary.CombinedTax

	a = press(t, a, "x", "j", "j", "enter")
	assert.False(t, a.opts.IncludeFederal)
	assert.NoError(t, a.settings.saveErr)
	assert.True(t, a.settings.saved)
	assert.Less(t, a.summary.CombinedTax, before)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.General.IncludeFederal)
}

func TestSettingsEditJurisdiction(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, "x", "enter")
	require.True(t, a.settings.editing)

	a.settings.input.SetValue("oregon")
	a = press(t, a, "enter")
	assert.False(t, a.settings.editing)
	assert.Equal(t, "OR", a.opts.FallbackJurisdiction)

	a = press(t, a, "enter")
	a.settings.input.SetValue("Atlantis")
	a = press(t, a, "enter")
	assert.ErrorIs(t, a.settings.saveErr, errInvalidSetting)
	assert.Equal(t, "OR", a.opts.FallbackJurisdiction)
}

func TestSettingsThemeCycles(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, "x", "j", "j", "j", "enter")
	assert.Equal(t, theme.Next(theme.FlexokiDark.Name).Name, theme.Active.Name)
}

func TestViewRendersEveryTab(t *testing.T) {
	a := loadedApp(t)
	for tab := range components.Tabs {
		a.activeTab = tab
		view := a.View()
		assert.Equal(t, a.height, len(strings.Split(view, "\n")), "tab %d", tab)
	}
}

func TestViewTooNarrow(t *testing.T) {
	a := loadedApp(t)
	a.width = 60
	assert.Contains(t, a.View(), "too narrow")
}

func TestTaxCurveIsMonotonic(t *testing.T) {
	j, ok := config.LookupJurisdiction("MA")
	require.True(t, ok)

	curve := taxCurve(j, curveCeiling(j), 30)
	require.Len(t, curve, 30)
	assert.Zero(t, curve[0])
	for i := 1; i < len(curve); i++ {
		assert.GreaterOrEqual(t, curve[i], curve[i-1])
	}
}

func TestApplySetup(t *testing.T) {
	cfg := ApplySetup(config.DefaultConfig(), SetupValues{
		Jurisdiction:   "OR",
		CasesDir:       config.DefaultCasesDir(),
		IncludeFederal: false,
		Theme:          "bogus",
	})
	assert.Equal(t, "OR", cfg.General.DefaultJurisdiction)
	assert.Empty(t, cfg.General.CasesDir, "default dir is not persisted")
	assert.False(t, cfg.General.IncludeFederal)
	assert.Equal(t, theme.FlexokiDark.Name, cfg.Appearance.Theme)
}
