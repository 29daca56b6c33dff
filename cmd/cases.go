package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/pipeline"
	"github.com/theirongolddev/estateplan/internal/store"
)

var flagCasesLimit int

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List cases with their tax and savings estimates",
	RunE:  runCases,
}

var caseShowCmd = &cobra.Command{
	Use:   "show <case-id>",
	Short: "Show the full analysis for one case",
	Args:  cobra.ExactArgs(1),
	RunE:  runCaseShow,
}

func init() {
	casesCmd.Flags().IntVarP(&flagCasesLimit, "limit", "n", 0, "Show at most n cases (0 = all)")
	casesCmd.AddCommand(caseShowCmd)
	rootCmd.AddCommand(casesCmd)
}

func runCases(_ *cobra.Command, _ []string) error {
	analyses, result, err := loadAnalyses()
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		fmt.Println("\n  No cases found.")
		return nil
	}

	shown := analyses
	if flagCasesLimit > 0 && len(shown) > flagCasesLimit {
		shown = shown[:flagCasesLimit]
	}

	rows := make([][]string, 0, len(shown))
	for _, a := range shown {
		rows = append(rows, []string{
			a.Case.CaseID,
			truncate(a.Case.ClientName, 24),
			a.State.Key,
			string(a.Snapshot.PlanType),
			cli.FormatCurrencyShort(a.Snapshot.TotalValue),
			cli.FormatCurrency(a.Savings.TaxNoPlan),
			cli.FormatCurrency(a.Savings.Savings),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       fmt.Sprintf("Cases (%d of %d)", len(shown), len(analyses)),
		Headers:     []string{"ID", "Client", "Juris.", "Plan", "Estate", "Tax (no plan)", "Savings"},
		Rows:        rows,
		LeftAligned: map[int]bool{1: true, 2: true, 3: true},
	}))

	printLoadWarnings(result)
	return nil
}

func runCaseShow(_ *cobra.Command, args []string) error {
	a, err := findCase(args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CASE %s  %s", a.Case.CaseID, a.Case.ClientName)))
	fmt.Println()

	if a.UnknownJurisdiction {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("Unknown jurisdiction %q; using %s.", a.Case.Jurisdiction, a.State.Name)))
		fmt.Println()
	}

	grantors := make([]string, 0, len(a.Case.Grantors))
	for _, g := range a.Case.Grantors {
		grantors = append(grantors, g.Name)
	}

	fmt.Print(cli.RenderKeyValues("Case", []cli.KeyValue{
		{Key: "Jurisdiction", Value: fmt.Sprintf("%s (%s)", a.State.Name, a.State.Key)},
		{Key: "Plan", Value: string(a.Snapshot.PlanType)},
		{Key: "Grantors", Value: strings.Join(grantors, ", ")},
		{Key: "File", Value: a.Case.FilePath},
	}))
	fmt.Println()

	var assetRows [][]string
	for _, as := range a.Case.Assets {
		assetRows = append(assetRows, []string{
			truncate(as.Description, 32),
			as.Category,
			cli.FormatCurrency(as.Value.InexactFloat64()),
			cli.FormatYesNo(as.HeldInTrust),
		})
	}
	assetRows = append(assetRows,
		cli.SeparatorRow,
		[]string{"Total", "", cli.FormatCurrency(a.Snapshot.TotalValue), cli.FormatCurrency(a.Snapshot.TrustValue)},
	)
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       "Assets",
		Headers:     []string{"Description", "Category", "Value", "In Trust"},
		Rows:        assetRows,
		LeftAligned: map[int]bool{0: true, 1: true},
	}))
	fmt.Println()

	pairs := []cli.KeyValue{
		{Key: "Debts & expenses", Value: cli.FormatCurrency(a.Case.DebtsAndExpenses)},
		{Key: "Net estate", Value: cli.FormatCurrency(a.NetEstate)},
		{Key: a.State.Name + " tax", Value: cli.RenderTax(cli.FormatCents(a.StateTax))},
	}
	if a.Combined.Federal > 0 || (includeFederal() && a.State.Key != config.FederalKey) {
		pairs = append(pairs,
			cli.KeyValue{Key: "Federal tax", Value: cli.FormatCents(a.Combined.Federal)},
			cli.KeyValue{Key: "Combined", Value: cli.RenderTax(cli.FormatCents(a.Combined.Total))},
		)
	}
	fmt.Print(cli.RenderKeyValues("Tax", pairs))
	fmt.Println()

	if a.Snapshot.PlanType.IsMarried() {
		fmt.Print(cli.RenderKeyValues("Plan savings ("+a.Planning.Name+")", []cli.KeyValue{
			{Key: "Tax without plan", Value: cli.FormatCents(a.Savings.TaxNoPlan)},
			{Key: "Tax with plan", Value: cli.FormatCents(a.Savings.TaxWithPlan)},
			{Key: "Savings", Value: cli.RenderMoney(cli.FormatCents(a.Savings.Savings))},
		}))
		fmt.Println()
	}
	fmt.Print(renderFunding(a.Funding))

	printAdvisories(a.State)
	return nil
}

// findCase checks the cache first and falls back to a full load.
func findCase(id string) (pipeline.CaseAnalysis, error) {
	fallback := config.GetDefaultJurisdiction(appConfig)

	if !flagNoCache {
		if cache, err := store.Open(pipeline.CachePath()); err == nil {
			cc, err := cache.GetCase(id)
			_ = cache.Close()
			if err == nil {
				return pipeline.AnalyzeCase(cc.Case, fallback, includeFederal()), nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return pipeline.CaseAnalysis{}, err
			}
		}
	}

	analyses, _, err := loadAnalyses()
	if err != nil {
		return pipeline.CaseAnalysis{}, err
	}
	a, ok := pipeline.FindCase(analyses, id)
	if !ok {
		return a, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return a, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
