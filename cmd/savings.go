package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/taxcalc"
)

var (
	flagSavingsTotal string
	flagSavingsDebts string
	flagSavingsQTIP  string
)

var savingsCmd = &cobra.Command{
	Use:   "savings",
	Short: "Estimate AB/ABC trust savings for a married couple",
	Example: `  estateplan savings --total 6000000 --debts 250000 -j MA --plan AB
  estateplan savings --total '$12M' --plan ABC --qtip 2000000 -j FED`,
	RunE: runSavings,
}

func init() {
	savingsCmd.Flags().StringVar(&flagSavingsTotal, "total", "", "Combined estate value (required)")
	savingsCmd.Flags().StringVar(&flagSavingsDebts, "debts", "0", "Debts and final expenses")
	savingsCmd.Flags().StringVar(&flagSavingsQTIP, "qtip", "0", "QTIP trust amount for ABC plans")
	_ = savingsCmd.MarkFlagRequired("total")
	rootCmd.AddCommand(savingsCmd)
}

func runSavings(_ *cobra.Command, _ []string) error {
	total, err := parseAmount("total", flagSavingsTotal)
	if err != nil {
		return err
	}
	debts, err := parseAmount("debts", flagSavingsDebts)
	if err != nil {
		return err
	}
	qtip, err := parseAmount("qtip", flagSavingsQTIP)
	if err != nil {
		return err
	}

	planType := model.PlanAB
	if flagPlan != "" {
		p, ok := model.ParsePlanType(flagPlan)
		if !ok {
			return fmt.Errorf("unknown plan type %q (want Individual, AB, or ABC)", flagPlan)
		}
		planType = p
	}
	if !planType.IsMarried() {
		return errors.New("savings apply to married plans only (AB or ABC)")
	}

	state, err := lookupJurisdiction(defaultJurisdiction())
	if err != nil {
		return err
	}
	j := state
	if !state.HasEstateTax() && includeFederal() {
		j = config.Federal()
	}

	trust := model.TrustValues{QTIP: qtip}
	s := taxcalc.EstimateMarriedPlanSavings(total, debts, j, planType, trust)
	f := taxcalc.SplitFunding(total, debts, j, planType, trust)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s TRUST SAVINGS  %s", planType, j.Name)))
	fmt.Println()
	if j.Key != state.Key {
		fmt.Println(cli.RenderMuted(fmt.Sprintf("  %s has no estate tax; using %s.", state.Name, j.Name)))
		fmt.Println()
	}

	fmt.Print(cli.RenderKeyValues("Estimate", []cli.KeyValue{
		{Key: "Deceased share", Value: cli.FormatCurrency(s.DeceasedShare)},
		{Key: "Survivor share", Value: cli.FormatCurrency(s.SurvivorShare)},
		{Key: "Bypass trust", Value: cli.FormatCurrency(s.BypassAmount)},
		{Key: "QTIP trust", Value: cli.FormatCurrency(s.QTIPAmount)},
		{Key: "Tax without plan", Value: cli.RenderTax(cli.FormatCents(s.TaxNoPlan))},
		{Key: "Tax with plan", Value: cli.FormatCents(s.TaxWithPlan) + " " +
			cli.RenderMuted("("+cli.FormatDelta(s.TaxWithPlan, s.TaxNoPlan)+")")},
		{Key: "Savings", Value: cli.RenderMoney(cli.FormatCents(s.Savings))},
	}))
	fmt.Println()
	fmt.Print(renderFunding(f))

	printAdvisories(state)
	return nil
}

func renderFunding(f model.Funding) string {
	rows := []cli.KeyValue{
		{Key: "Net estate", Value: cli.FormatCurrency(f.NetEstate)},
	}
	if f.Family > 0 {
		rows = append(rows, cli.KeyValue{Key: "Family trust", Value: cli.FormatCurrency(f.Family)})
	} else {
		rows = append(rows,
			cli.KeyValue{Key: "Bypass (A)", Value: cli.FormatCurrency(f.Bypass)},
			cli.KeyValue{Key: "QTIP (C)", Value: cli.FormatCurrency(f.QTIP)},
			cli.KeyValue{Key: "Survivor (B)", Value: cli.FormatCurrency(f.Survivor)},
		)
	}
	return cli.RenderKeyValues("Funding at first death", rows)
}
