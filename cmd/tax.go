package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/source"
	"github.com/theirongolddev/estateplan/internal/taxcalc"
)

var flagTaxAll bool

var taxCmd = &cobra.Command{
	Use:   "tax <amount>",
	Short: "Estate tax on an amount in one or every jurisdiction",
	Example: `  estateplan tax 2500000 -j OR
  estateplan tax '$12,000,000' --all`,
	Args: cobra.ExactArgs(1),
	RunE: runTax,
}

func init() {
	taxCmd.Flags().BoolVar(&flagTaxAll, "all", false, "Compare every jurisdiction")
	rootCmd.AddCommand(taxCmd)
}

func parseAmount(label, raw string) (float64, error) {
	v, err := source.ParseCurrencyFloat(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", label)
	}
	return v, nil
}

func lookupJurisdiction(key string) (model.Jurisdiction, error) {
	j, ok := config.LookupJurisdiction(key)
	if !ok {
		return j, fmt.Errorf("unknown jurisdiction %q (run `estateplan jurisdictions` for the list)", key)
	}
	return j, nil
}

func runTax(_ *cobra.Command, args []string) error {
	estate, err := parseAmount("amount", args[0])
	if err != nil {
		return err
	}

	if flagTaxAll {
		return printTaxAll(estate)
	}

	j, err := lookupJurisdiction(defaultJurisdiction())
	if err != nil {
		return err
	}

	tax := taxcalc.ComputeTax(estate, j)
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s ESTATE TAX", strings.ToUpper(j.Name))))
	fmt.Println()

	pairs := []cli.KeyValue{
		{Key: "Estate", Value: cli.FormatCurrency(estate)},
		{Key: "Exemption", Value: exemptionText(j)},
		{Key: "Schedule", Value: scheduleText(j)},
		{Key: "Tax", Value: cli.RenderTax(cli.FormatCents(tax))},
		{Key: "Marginal rate", Value: cli.FormatRate(taxcalc.MarginalRate(estate, j))},
		{Key: "Effective rate", Value: cli.FormatPercent(taxcalc.EffectiveRate(estate, j))},
	}
	if includeFederal() && j.Key != config.FederalKey {
		c := taxcalc.EstimateCombined(estate, j, config.Federal())
		pairs = append(pairs,
			cli.KeyValue{Key: "Federal (after state deduction)", Value: cli.FormatCents(c.Federal)},
			cli.KeyValue{Key: "Combined", Value: cli.RenderTax(cli.FormatCents(c.Total))},
		)
	}
	fmt.Print(cli.RenderKeyValues("", pairs))

	printAdvisories(j)
	return nil
}

func printTaxAll(estate float64) error {
	fed := config.Federal()
	var rows [][]string
	for _, j := range config.All() {
		tax := taxcalc.ComputeTax(estate, j)
		combined := tax
		if includeFederal() && j.Key != config.FederalKey {
			combined = taxcalc.EstimateCombined(estate, j, fed).Total
		}
		rows = append(rows, []string{
			j.Key,
			j.Name,
			exemptionText(j),
			cli.FormatCurrency(tax),
			cli.FormatPercent(taxcalc.EffectiveRate(estate, j)),
			cli.FormatCurrency(combined),
		})
	}
	if len(rows) == 0 {
		return errors.New("no jurisdictions configured")
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       fmt.Sprintf("Estate tax on %s", cli.FormatCurrency(estate)),
		Headers:     []string{"Key", "Jurisdiction", "Exemption", "Tax", "Effective", "With Federal"},
		Rows:        rows,
		LeftAligned: map[int]bool{1: true},
	}))
	return nil
}

func exemptionText(j model.Jurisdiction) string {
	if !j.HasEstateTax() {
		return "no estate tax"
	}
	return cli.FormatCurrency(j.Exemption)
}

func scheduleText(j model.Jurisdiction) string {
	switch {
	case !j.HasEstateTax():
		return "none"
	case j.Kind == model.Progressive && len(j.Brackets) > 0:
		return fmt.Sprintf("progressive, %d brackets, top %s", len(j.Brackets), cli.FormatRate(j.TopRate()))
	default:
		return "flat " + cli.FormatRate(j.FlatRate)
	}
}

func printAdvisories(j model.Jurisdiction) {
	notes := j.Advisories()
	if len(notes) == 0 {
		return
	}
	fmt.Println()
	for _, n := range notes {
		fmt.Println(cli.RenderWarning(n))
	}
}
