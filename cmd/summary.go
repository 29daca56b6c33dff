package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Portfolio overview across all cases",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

const summaryBarLimit = 8

func runSummary(_ *cobra.Command, _ []string) error {
	analyses, result, err := loadAnalyses()
	if err != nil {
		return err
	}

	if result.TotalFiles == 0 {
		fmt.Printf("\n  No case files found in %s.\n", flagCasesDir)
		fmt.Println("  Add *.json case files there, or point --cases-dir elsewhere.")
		return nil
	}
	if len(analyses) == 0 {
		fmt.Println("\n  No cases match the selected filters.")
		return nil
	}

	s := pipeline.Summarize(analyses)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ESTATE PORTFOLIO  %d cases", s.Cases)))
	fmt.Println()

	rows := [][]string{
		{"Cases", cli.FormatNumber(int64(s.Cases))},
		{"Married (AB/ABC)", cli.FormatNumber(int64(s.MarriedCases))},
		cli.SeparatorRow,
		{"Gross Estate", cli.FormatCurrency(s.TotalEstate)},
		{"  In Trust", cli.FormatCurrency(s.TotalTrust)},
		{"  Outside Trust", cli.FormatCurrency(s.TotalNonTrust)},
		{"Debts & Expenses", cli.FormatCurrency(s.TotalDebts)},
		cli.SeparatorRow,
		{"Tax Without Plan", cli.FormatCurrency(s.TaxNoPlan)},
		{"Tax With Plan", cli.FormatCurrency(s.TaxWithPlan)},
		{"Plan Savings", cli.FormatCurrency(s.Savings)},
	}
	if includeFederal() {
		rows = append(rows,
			cli.SeparatorRow,
			[]string{"State Tax", cli.FormatCurrency(s.StateTax)},
			[]string{"Federal Tax", cli.FormatCurrency(s.FederalTax)},
			[]string{"Combined", cli.FormatCurrency(s.CombinedTax)},
		)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))
	fmt.Println()

	byJuris := pipeline.AggregateJurisdictions(analyses)
	var jrows [][]string
	for _, js := range byJuris {
		jrows = append(jrows, []string{
			js.Key,
			js.Name,
			cli.FormatNumber(int64(js.Cases)),
			cli.FormatCurrencyShort(js.TotalEstate),
			cli.FormatCurrency(js.TaxNoPlan),
			cli.FormatCurrency(js.Savings),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       "By Jurisdiction",
		Headers:     []string{"Key", "Name", "Cases", "Estate", "Tax (no plan)", "Savings"},
		Rows:        jrows,
		LeftAligned: map[int]bool{1: true},
	}))
	fmt.Println()

	if len(byJuris) > 1 && byJuris[0].TaxNoPlan > 0 {
		fmt.Println(cli.RenderMuted("  Tax without plan"))
		for i, js := range byJuris {
			if i == summaryBarLimit {
				break
			}
			fmt.Println(cli.RenderHorizontalBar(js.Key, 4, js.TaxNoPlan, byJuris[0].TaxNoPlan, 30))
		}
		fmt.Println()
	}

	fmt.Println("  " + planMix(s))
	printLoadWarnings(result)
	return nil
}

func planMix(s model.PortfolioSummary) string {
	plans := make([]string, 0, len(s.ByPlan))
	for p := range s.ByPlan {
		plans = append(plans, string(p))
	}
	sort.Strings(plans)

	out := cli.RenderMuted("Plans:")
	for _, p := range plans {
		out += fmt.Sprintf(" %s %d", p, s.ByPlan[model.PlanType(p)])
	}
	return out
}
