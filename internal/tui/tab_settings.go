package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/tui/components"
	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

const (
	settingsFieldJurisdiction = iota
	settingsFieldCasesDir
	settingsFieldIncludeFederal
	settingsFieldTheme
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.cursor = clampIndex(a.settings.cursor+1, settingsFieldCount)
		return a, nil, true
	case "k", "up":
		a.settings.cursor = clampIndex(a.settings.cursor-1, settingsFieldCount)
		return a, nil, true
	case "enter", " ":
		return a.settingsActivate()
	}
	return a, nil, false
}

// settingsActivate toggles boolean fields, cycles the theme, and opens a
// text input for the rest.
func (a App) settingsActivate() (tea.Model, tea.Cmd, bool) {
	a.settings.saved = false
	cfg := loadConfigOrDefault()

	switch a.settings.cursor {
	case settingsFieldIncludeFederal:
		cfg.General.IncludeFederal = !a.opts.IncludeFederal
		a.opts.IncludeFederal = cfg.General.IncludeFederal
		a.recompute()
		a.finishSave(cfg)
		return a, nil, true
	case settingsFieldTheme:
		next := theme.Next(theme.Active.Name)
		cfg.Appearance.Theme = next.Name
		theme.SetActive(next.Name)
		a.finishSave(cfg)
		return a, nil, true
	case settingsFieldAutoRefresh:
		a.autoRefresh = !a.autoRefresh
		cfg.TUI.AutoRefresh = a.autoRefresh
		a.finishSave(cfg)
		return a, nil, true
	}

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldJurisdiction:
		ti.Placeholder = "OR, New York, FED..."
		ti.SetValue(a.opts.FallbackJurisdiction)
	case settingsFieldCasesDir:
		ti.Placeholder = config.DefaultCasesDir()
		ti.SetValue(a.opts.CasesDir)
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}
	ti.Focus()
	a.settings.input = ti
	a.settings.editing = true
	return a, textinput.Blink, true
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.settingsSave()
		a.settings.editing = false
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

var errInvalidSetting = errors.New("invalid value")

// settingsSave applies the edited text field. Changing the cases directory
// triggers a reload.
func (a *App) settingsSave() tea.Cmd {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())

	var cmd tea.Cmd
	switch a.settings.cursor {
	case settingsFieldJurisdiction:
		j, ok := config.LookupJurisdiction(val)
		if !ok {
			a.settings.saved = false
			a.settings.saveErr = fmt.Errorf("%w: unknown jurisdiction %q", errInvalidSetting, val)
			return nil
		}
		cfg.General.DefaultJurisdiction = j.Key
		a.opts.FallbackJurisdiction = j.Key
		a.recompute()
	case settingsFieldCasesDir:
		cfg.General.CasesDir = val
		dir := config.GetCasesDir(cfg)
		if dir != a.opts.CasesDir && !a.refreshing {
			a.opts.CasesDir = dir
			a.refreshing = true
			cmd = refreshDataCmd(dir, a.opts.UseCache)
		}
	case settingsFieldRefreshInterval:
		secs, err := strconv.Atoi(val)
		if err != nil || time.Duration(secs)*time.Second < minRefreshInterval {
			a.settings.saved = false
			a.settings.saveErr = fmt.Errorf("%w: interval must be at least %s", errInvalidSetting, minRefreshInterval)
			return nil
		}
		cfg.TUI.RefreshIntervalSec = secs
		a.refreshInterval = time.Duration(secs) * time.Second
	}

	a.finishSave(cfg)
	return cmd
}

func (a *App) finishSave(cfg config.Config) {
	a.settings.saveErr = config.Save(cfg)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	jurisdictionName := a.opts.FallbackJurisdiction
	if j, ok := config.LookupJurisdiction(a.opts.FallbackJurisdiction); ok {
		jurisdictionName = fmt.Sprintf("%s (%s)", j.Name, j.Key)
	}

	fields := []struct{ label, value string }{
		{"Default Jurisdiction", jurisdictionName},
		{"Cases Directory", a.opts.CasesDir},
		{"Include Federal", strconv.FormatBool(a.opts.IncludeFederal)},
		{"Theme", theme.Active.Name},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-22s ", f.label)))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-22s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(valueStyle.Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-22s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit/toggle  [Esc] cancel"))

	var info strings.Builder
	info.WriteString(labelStyle.Render("Cases loaded:  ") + valueStyle.Render(cli.FormatNumber(int64(len(a.cases)))) + "\n")
	info.WriteString(labelStyle.Render("Load time:     ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	info.WriteString(labelStyle.Render("Jurisdictions: ") + valueStyle.Render(strconv.Itoa(len(config.Keys()))) + "\n")
	info.WriteString(labelStyle.Render("Config file:   ") + valueStyle.Render(config.ConfigPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}
