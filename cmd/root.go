// Package cmd implements the estateplan CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/pipeline"
	"github.com/theirongolddev/estateplan/internal/store"
)

var (
	flagCasesDir     string
	flagJurisdiction string
	flagPlan         string
	flagNoCache      bool
	flagQuiet        bool
	flagNoFederal    bool

	// appConfig is loaded once per invocation before any command runs.
	appConfig = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "estateplan",
	Short: "Estate-tax estimates for trust planning",
	Long: "Estimate state and federal estate tax, AB/ABC trust savings, and trust funding\n" +
		"for a directory of client case files. Figures are advisory only.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagCasesDir, "cases-dir", "d", "", "Case files directory (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagJurisdiction, "jurisdiction", "j", "", "Jurisdiction key or name (e.g. OR, \"New York\")")
	rootCmd.PersistentFlags().StringVar(&flagPlan, "plan", "", "Filter to plan type (Individual, AB, ABC)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoFederal, "no-federal", false, "Leave federal tax out of combined estimates")
}

// loadConfig reads the config file, installs jurisdiction overrides, and
// fills flags the user did not set.
func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg
	config.ApplyOverrides(cfg)

	if !cmd.Flags().Changed("cases-dir") || flagCasesDir == "" {
		flagCasesDir = config.GetCasesDir(cfg)
	}
	return nil
}

func includeFederal() bool {
	return appConfig.General.IncludeFederal && !flagNoFederal
}

// defaultJurisdiction is used for cases without one and for one-off calculations.
func defaultJurisdiction() string {
	if flagJurisdiction != "" {
		return config.NormalizeJurisdictionKey(flagJurisdiction)
	}
	return config.GetDefaultJurisdiction(appConfig)
}

func stderrIsTTY() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// loadData is the shared case loading path used by all commands.
// Uses SQLite cache when available for fast subsequent runs.
func loadData() (*pipeline.LoadResult, error) {
	tty := stderrIsTTY()
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", flagCasesDir)
	}

	progressFn := func(current, total int) {
		if flagQuiet || !tty {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 24))
		}
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "  Cache unavailable, doing full parse\n")
			}
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(flagCasesDir, cache, progressFn)
			if err == nil {
				if !flagQuiet && cr.TotalFiles > 0 {
					fmt.Fprintf(os.Stderr, "\r  %s cached + %d reparsed (%d folders)    \n",
						cli.FormatNumber(int64(cr.CacheHits)), cr.Reparsed, cr.FolderCount)
				}
				return &cr.LoadResult, nil
			}
			if !flagQuiet {
				fmt.Fprintf(os.Stderr, "\n  Cache error, falling back to full parse\n")
			}
		}
	}

	result, err := pipeline.Load(flagCasesDir, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Parsed %s case files across %d folders    \n",
			cli.FormatNumber(int64(result.ParsedFiles)), result.FolderCount)
	}
	return result, nil
}

// loadAnalyses loads, filters, and analyzes all cases.
func loadAnalyses() ([]pipeline.CaseAnalysis, *pipeline.LoadResult, error) {
	result, err := loadData()
	if err != nil {
		return nil, nil, err
	}

	cases := result.Cases
	if flagJurisdiction != "" {
		cases = pipeline.FilterByJurisdiction(cases, flagJurisdiction)
	}
	if flagPlan != "" {
		cases = pipeline.FilterByPlan(cases, flagPlan)
	}

	fallback := config.GetDefaultJurisdiction(appConfig)
	return pipeline.AnalyzeAll(cases, fallback, includeFederal()), result, nil
}

func printLoadWarnings(result *pipeline.LoadResult) {
	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "\n  %d case files could not be read\n", result.FileErrors)
	}
	if result.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d values could not be parsed and were counted as $0\n", result.ParseErrors)
	}
}
