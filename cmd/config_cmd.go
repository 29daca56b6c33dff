package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default jurisdiction: %s\n", config.GetDefaultJurisdiction(cfg))
	fmt.Printf("    Cases directory:      %s\n", config.GetCasesDir(cfg))
	fmt.Printf("    Include federal:      %v\n", cfg.General.IncludeFederal)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh:     %v\n", cfg.TUI.AutoRefresh)
	fmt.Printf("    Refresh interval: %ds\n", cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  [Jurisdictions]")
	if len(cfg.Jurisdictions.Overrides) == 0 {
		fmt.Println("    No overrides; using built-in rules")
	} else {
		keys := make([]string, 0, len(cfg.Jurisdictions.Overrides))
		for k := range cfg.Jurisdictions.Overrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			j, ok := config.LookupJurisdiction(k)
			if !ok {
				continue
			}
			fmt.Printf("    %-4s %s (%s)\n", j.Key, j.Name, scheduleText(j))
		}
	}
	fmt.Println()

	fmt.Println("  Run `estateplan setup` to reconfigure.")
	return nil
}
