package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/source"
	"github.com/theirongolddev/estateplan/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	files, _ := source.ScanDir(flagCasesDir)

	vals := tui.SetupValuesFrom(appConfig)
	form := tui.NewSetupForm(len(files), &vals)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	cfg := tui.ApplySetup(appConfig, vals)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if len(files) > 0 {
		fmt.Printf("  %s case files in %s (%d folders)\n",
			cli.FormatNumber(int64(len(files))), config.GetCasesDir(cfg), source.CountFolders(files))
	}
	fmt.Println("  Run `estateplan setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
