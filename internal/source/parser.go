// Package source discovers and parses client case files.
package source

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
)

// ParseResult holds the output of parsing a single case file.
type ParseResult struct {
	Case        model.Case
	ParseErrors int
	Err         error
}

// ParseFile reads a JSON case file into a model.Case.
//
// A file that cannot be read or is not valid JSON sets Err. Individual
// currency values that fail to parse are counted in ParseErrors and
// treated as zero so the rest of the case still loads.
func ParseFile(df DiscoveredFile) ParseResult {
	data, err := os.ReadFile(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	return ParseBytes(data, df)
}

// ParseBytes decodes case JSON already in memory.
func ParseBytes(data []byte, df DiscoveredFile) ParseResult {
	var raw RawCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return ParseResult{Err: fmt.Errorf("decoding %s: %w", df.Path, err)}
	}

	var parseErrors int
	amount := func(v CurrencyField) decimal.Decimal {
		d, err := ParseCurrency(string(v))
		if err != nil {
			parseErrors++
			return decimal.Zero
		}
		return d
	}
	money := func(v CurrencyField) float64 { return amount(v).InexactFloat64() }

	c := model.Case{
		CaseID:           raw.ID,
		ClientName:       raw.ClientName,
		Jurisdiction:     config.NormalizeJurisdictionKey(raw.Jurisdiction),
		DebtsAndExpenses: money(raw.DebtsAndExpenses),
		FilePath:         df.Path,
	}
	if c.CaseID == "" {
		c.CaseID = df.CaseID
	}
	if c.CaseID == "" {
		c.CaseID = uuid.NewString()
	}
	if pt, ok := model.ParsePlanType(raw.PlanType); ok {
		c.PlanType = pt
	}

	for _, g := range raw.Grantors {
		c.Grantors = append(c.Grantors, model.Grantor{Name: g.Name, Role: g.Role})
	}
	for _, a := range raw.Assets {
		c.Assets = append(c.Assets, model.Asset{
			Description: a.Description,
			Category:    a.Category,
			Value:       amount(a.Value),
			HeldInTrust: a.HeldInTrust,
		})
	}
	if raw.TrustValues != nil {
		c.QTIPValue = money(raw.TrustValues.QTIP)
	}

	return ParseResult{Case: c, ParseErrors: parseErrors}
}
