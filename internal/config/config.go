package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all estateplan configuration.
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Appearance    AppearanceConfig    `toml:"appearance"`
	Daemon        DaemonConfig        `toml:"daemon"`
	TUI           TUIConfig           `toml:"tui"`
	Jurisdictions JurisdictionsConfig `toml:"jurisdictions"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultJurisdiction string `toml:"default_jurisdiction"`
	CasesDir            string `toml:"cases_dir,omitempty"`
	IncludeFederal      bool   `toml:"include_federal"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DaemonConfig holds background watcher defaults.
type DaemonConfig struct {
	Addr     string `toml:"addr,omitempty"`
	Interval string `toml:"interval,omitempty"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// JurisdictionsConfig allows firm-specific rule overrides.
type JurisdictionsConfig struct {
	Overrides map[string]JurisdictionOverride `toml:"overrides,omitempty"`
}

// JurisdictionOverride replaces selected fields of a built-in jurisdiction,
// or defines a new one when the key is unknown.
type JurisdictionOverride struct {
	Name         string            `toml:"name,omitempty"`
	Exemption    *float64          `toml:"exemption,omitempty"`
	FlatRate     *float64          `toml:"flat_rate,omitempty"`
	GSTExemption *float64          `toml:"gst_exemption,omitempty"`
	NoEstateTax  *bool             `toml:"no_estate_tax,omitempty"`
	Brackets     []BracketOverride `toml:"brackets,omitempty"`
}

// BracketOverride is one configured bracket. A nil UpTo means unbounded.
type BracketOverride struct {
	UpTo *float64 `toml:"up_to,omitempty"`
	Rate float64  `toml:"rate"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultJurisdiction: FederalKey,
			IncludeFederal:      true,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Daemon: DaemonConfig{
			Addr:     "127.0.0.1:8797",
			Interval: "15s",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 30,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "estateplan")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "estateplan")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DefaultCasesDir is used when neither the env nor the config names a directory.
func DefaultCasesDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "estateplan", "cases")
}

// GetCasesDir returns the cases directory from env var, config, or default, in that order.
func GetCasesDir(cfg Config) string {
	if dir := os.Getenv("ESTATEPLAN_CASES_DIR"); dir != "" {
		return expandHome(dir)
	}
	if cfg.General.CasesDir != "" {
		return expandHome(cfg.General.CasesDir)
	}
	return DefaultCasesDir()
}

// GetDefaultJurisdiction returns the default jurisdiction key from env var or config.
func GetDefaultJurisdiction(cfg Config) string {
	if key := os.Getenv("ESTATEPLAN_JURISDICTION"); key != "" {
		return NormalizeJurisdictionKey(key)
	}
	if cfg.General.DefaultJurisdiction != "" {
		return NormalizeJurisdictionKey(cfg.General.DefaultJurisdiction)
	}
	return FederalKey
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
