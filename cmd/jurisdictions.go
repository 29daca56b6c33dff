package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
)

var flagShowBrackets bool

var jurisdictionsCmd = &cobra.Command{
	Use:     "jurisdictions [key]",
	Aliases: []string{"states"},
	Short:   "List configured jurisdictions and their estate tax rules",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runJurisdictions,
}

func init() {
	jurisdictionsCmd.Flags().BoolVar(&flagShowBrackets, "brackets", false, "Show bracket schedules")
	rootCmd.AddCommand(jurisdictionsCmd)
}

func runJurisdictions(_ *cobra.Command, args []string) error {
	if len(args) == 1 {
		j, err := lookupJurisdiction(args[0])
		if err != nil {
			return err
		}
		fmt.Println()
		printJurisdiction(j, true)
		return nil
	}

	var rows [][]string
	for _, j := range config.All() {
		rows = append(rows, []string{
			j.Key,
			j.Name,
			j.Kind.String(),
			exemptionText(j),
			cli.FormatRate(j.TopRate()),
			cli.FormatYesNo(j.HasInheritanceTax),
			cli.FormatYesNo(j.IsCommunityProperty),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:       "Jurisdictions",
		Headers:     []string{"Key", "Name", "Schedule", "Exemption", "Top Rate", "Inheritance", "Community"},
		Rows:        rows,
		LeftAligned: map[int]bool{1: true, 2: true},
	}))

	if flagShowBrackets {
		for _, j := range config.All() {
			if j.Kind == model.Progressive {
				fmt.Println()
				printJurisdiction(j, false)
			}
		}
	}
	return nil
}

func printJurisdiction(j model.Jurisdiction, withNotes bool) {
	fmt.Print(cli.RenderKeyValues(fmt.Sprintf("%s (%s)", j.Name, j.Key), []cli.KeyValue{
		{Key: "Schedule", Value: scheduleText(j)},
		{Key: "Exemption", Value: exemptionText(j)},
		{Key: "GST exemption", Value: gstText(j)},
	}))

	if j.Kind == model.Progressive && len(j.Brackets) > 0 {
		rows := make([][]string, 0, len(j.Brackets))
		lower := 0.0
		for _, b := range j.Brackets {
			rows = append(rows, []string{cli.FormatCurrency(lower), cli.FormatBound(b.UpTo), cli.FormatRate(b.Rate)})
			lower = b.UpTo
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Over", "Up To", "Rate"},
			Rows:    rows,
		}))
	}

	if withNotes {
		printAdvisories(j)
	}
}

func gstText(j model.Jurisdiction) string {
	if j.GSTExemption <= 0 {
		return "n/a"
	}
	return cli.FormatCurrency(j.GSTExemption)
}
