package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.True(t, cfg.General.IncludeFederal)
	assert.Equal(t, FederalKey, cfg.General.DefaultJurisdiction)
}

func TestLoadFrom_ParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[general]
default_jurisdiction = "OR"
cases_dir = "/srv/cases"
include_federal = false

[jurisdictions.overrides.XX]
name = "Test State"
exemption = 2000000.0
flat_rate = 0.10

[jurisdictions.overrides.MA]
brackets = [
  { up_to = 2000000.0, rate = 0.0 },
  { rate = 0.16 },
]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "OR", cfg.General.DefaultJurisdiction)
	assert.Equal(t, "/srv/cases", cfg.General.CasesDir)
	assert.False(t, cfg.General.IncludeFederal)

	xx, ok := cfg.Jurisdictions.Overrides["XX"]
	require.True(t, ok)
	require.NotNil(t, xx.Exemption)
	assert.InDelta(t, 2_000_000, *xx.Exemption, 0.001)

	ma := cfg.Jurisdictions.Overrides["MA"]
	require.Len(t, ma.Brackets, 2)
	assert.Nil(t, ma.Brackets[1].UpTo)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[general\n"), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestSaveAndLoad_RoundTripThroughXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, Exists())

	cfg := DefaultConfig()
	cfg.General.DefaultJurisdiction = "NY"
	cfg.Appearance.Theme = "catppuccin-mocha"
	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "NY", loaded.General.DefaultJurisdiction)
	assert.Equal(t, "catppuccin-mocha", loaded.Appearance.Theme)
}

func TestGetCasesDir_Precedence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.CasesDir = "/from/config"

	t.Setenv("ESTATEPLAN_CASES_DIR", "")
	assert.Equal(t, "/from/config", GetCasesDir(cfg))

	t.Setenv("ESTATEPLAN_CASES_DIR", "/from/env")
	assert.Equal(t, "/from/env", GetCasesDir(cfg))

	t.Setenv("ESTATEPLAN_CASES_DIR", "")
	cfg.General.CasesDir = ""
	assert.Equal(t, DefaultCasesDir(), GetCasesDir(cfg))
}

func TestGetDefaultJurisdiction_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DefaultJurisdiction = "ny"

	t.Setenv("ESTATEPLAN_JURISDICTION", "")
	assert.Equal(t, "NY", GetDefaultJurisdiction(cfg))

	t.Setenv("ESTATEPLAN_JURISDICTION", "oregon")
	assert.Equal(t, "OR", GetDefaultJurisdiction(cfg))
}
