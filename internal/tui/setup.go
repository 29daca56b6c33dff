package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/tui/theme"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Jurisdiction   string
	CasesDir       string
	IncludeFederal bool
	Theme          string
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Jurisdiction:   config.GetDefaultJurisdiction(cfg),
		CasesDir:       config.GetCasesDir(cfg),
		IncludeFederal: cfg.General.IncludeFederal,
		Theme:          theme.ByName(cfg.Appearance.Theme).Name,
	}
}

// NewSetupForm builds the first-run wizard. Answers are written into vals.
func NewSetupForm(caseCount int, vals *SetupValues) *huh.Form {
	jurisdictionOpts := make([]huh.Option[string], 0, len(config.Keys()))
	for _, j := range config.All() {
		label := fmt.Sprintf("%s (%s)", j.Name, j.Key)
		if !j.HasEstateTax() {
			label += " - no estate tax"
		}
		jurisdictionOpts = append(jurisdictionOpts, huh.NewOption(label, j.Key))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	welcome := "Estimates are advisory only. Settings are saved to " + config.ConfigPath() + "."
	if caseCount > 0 {
		welcome = fmt.Sprintf("Found %d case files. %s", caseCount, welcome)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to estateplan").
				Description(welcome),
			huh.NewSelect[string]().
				Title("Default jurisdiction").
				Description("Used for cases that do not name one, and for quick calculations.").
				Options(jurisdictionOpts...).
				Height(10).
				Value(&vals.Jurisdiction),
			huh.NewInput().
				Title("Case files directory").
				Placeholder(config.DefaultCasesDir()).
				Validate(validateCasesDir).
				Value(&vals.CasesDir),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Include federal estate tax in combined estimates?").
				Affirmative("Yes").
				Negative("No").
				Value(&vals.IncludeFederal),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithTheme(huh.ThemeCatppuccin()).WithShowHelp(true)
}

func validateCasesDir(s string) error {
	if strings.ContainsRune(s, '\x00') {
		return errors.New("invalid path")
	}
	return nil
}

// ApplySetup copies form answers onto cfg.
func ApplySetup(cfg config.Config, vals SetupValues) config.Config {
	if vals.Jurisdiction != "" {
		cfg.General.DefaultJurisdiction = vals.Jurisdiction
	}
	dir := strings.TrimSpace(vals.CasesDir)
	if dir == config.DefaultCasesDir() {
		dir = ""
	}
	cfg.General.CasesDir = dir
	cfg.General.IncludeFederal = vals.IncludeFederal
	cfg.Appearance.Theme = theme.ByName(vals.Theme).Name
	return cfg
}

// saveSetupConfig persists the wizard answers and applies them to the running app.
func (a *App) saveSetupConfig() error {
	cfg := ApplySetup(loadConfigOrDefault(), a.setupVals)
	theme.SetActive(cfg.Appearance.Theme)

	a.opts.FallbackJurisdiction = cfg.General.DefaultJurisdiction
	a.opts.IncludeFederal = cfg.General.IncludeFederal
	return config.Save(cfg)
}
