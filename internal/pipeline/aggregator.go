// Package pipeline orchestrates case loading, caching, and portfolio aggregation.
package pipeline

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/taxcalc"
)

// CaseAnalysis is everything the reports show for one case.
type CaseAnalysis struct {
	Case     model.Case
	Snapshot model.Snapshot

	// State is the case's own jurisdiction. Planning is the one used for the
	// savings and funding estimates: the state when it taxes estates, else federal.
	State    model.Jurisdiction
	Planning model.Jurisdiction

	// UnknownJurisdiction is set when neither the case nor the fallback key resolved.
	UnknownJurisdiction bool

	NetEstate float64
	StateTax  float64
	Savings   model.PlanSavings
	Funding   model.Funding
	Combined  model.CombinedEstimate
}

// BuildSnapshot derives the calculator input from a case's asset schedule.
func BuildSnapshot(c model.Case) model.Snapshot {
	trust := decimal.Zero
	nonTrust := decimal.Zero
	for _, a := range c.Assets {
		if a.HeldInTrust {
			trust = trust.Add(a.Value)
		} else {
			nonTrust = nonTrust.Add(a.Value)
		}
	}

	grantors := len(c.Grantors)
	if grantors < 1 {
		grantors = 1
	}
	if grantors > 2 {
		grantors = 2
	}

	plan := c.PlanType
	if plan == "" {
		plan = model.PlanIndividual
		if grantors == 2 {
			plan = model.PlanAB
		}
	}

	return model.Snapshot{
		TotalValue:    trust.Add(nonTrust).Round(2).InexactFloat64(),
		NonTrustValue: nonTrust.Round(2).InexactFloat64(),
		TrustValue:    trust.Round(2).InexactFloat64(),
		GrantorCount:  grantors,
		PlanType:      plan,
	}
}

// ResolveJurisdiction looks up the case's jurisdiction, then fallbackKey,
// then federal. ok is false when the federal default had to be used.
func ResolveJurisdiction(caseKey, fallbackKey string) (model.Jurisdiction, bool) {
	if j, ok := config.LookupJurisdiction(caseKey); ok {
		return j, true
	}
	if j, ok := config.LookupJurisdiction(fallbackKey); ok {
		return j, caseKey == ""
	}
	return config.Federal(), false
}

// AnalyzeCase runs every estimate for one case.
func AnalyzeCase(c model.Case, fallbackJurisdiction string, includeFederal bool) CaseAnalysis {
	snap := BuildSnapshot(c)
	state, ok := ResolveJurisdiction(c.Jurisdiction, fallbackJurisdiction)
	federal := config.Federal()

	planning := state
	if !state.HasEstateTax() && includeFederal {
		planning = federal
	}

	net := snap.TotalValue - c.DebtsAndExpenses
	if net < 0 {
		net = 0
	}

	a := CaseAnalysis{
		Case:                c,
		Snapshot:            snap,
		State:               state,
		Planning:            planning,
		UnknownJurisdiction: !ok,
		NetEstate:           net,
		StateTax:            taxcalc.ComputeTax(net, state),
	}

	trust := model.TrustValues{QTIP: c.QTIPValue}
	if snap.PlanType.IsMarried() && snap.GrantorCount == 2 {
		a.Savings = taxcalc.EstimateMarriedPlanSavings(snap.TotalValue, c.DebtsAndExpenses, planning, snap.PlanType, trust)
	} else {
		noPlan := taxcalc.ComputeTax(net, planning)
		a.Savings = model.PlanSavings{
			PlanType:    snap.PlanType,
			TaxNoPlan:   noPlan,
			TaxWithPlan: noPlan,
		}
	}
	a.Funding = taxcalc.SplitFunding(snap.TotalValue, c.DebtsAndExpenses, planning, snap.PlanType, trust)

	if includeFederal {
		a.Combined = taxcalc.EstimateCombined(net, state, federal)
	} else {
		a.Combined = model.CombinedEstimate{Estate: net, State: a.StateTax, Total: a.StateTax}
	}

	return a
}

// AnalyzeAll runs AnalyzeCase over every case, sorted by case id.
func AnalyzeAll(cases []model.Case, fallbackJurisdiction string, includeFederal bool) []CaseAnalysis {
	out := make([]CaseAnalysis, 0, len(cases))
	for _, c := range cases {
		out = append(out, AnalyzeCase(c, fallbackJurisdiction, includeFederal))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Case.CaseID < out[j].Case.CaseID })
	return out
}

// Summarize computes portfolio totals across analyzed cases.
func Summarize(analyses []CaseAnalysis) model.PortfolioSummary {
	s := model.PortfolioSummary{
		ByJurisdiction: make(map[string]int),
		ByPlan:         make(map[model.PlanType]int),
	}

	for _, a := range analyses {
		s.Cases++
		if a.Snapshot.PlanType.IsMarried() {
			s.MarriedCases++
		}
		s.TotalEstate += a.Snapshot.TotalValue
		s.TotalTrust += a.Snapshot.TrustValue
		s.TotalNonTrust += a.Snapshot.NonTrustValue
		s.TotalDebts += a.Case.DebtsAndExpenses

		s.TaxNoPlan += a.Savings.TaxNoPlan
		s.TaxWithPlan += a.Savings.TaxWithPlan
		s.Savings += a.Savings.Savings

		s.StateTax += a.Combined.State
		s.FederalTax += a.Combined.Federal
		s.CombinedTax += a.Combined.Total

		s.ByJurisdiction[a.State.Key]++
		s.ByPlan[a.Snapshot.PlanType]++
	}

	return s
}

// AggregateJurisdictions groups analyses by jurisdiction, sorted by no-plan tax descending.
func AggregateJurisdictions(analyses []CaseAnalysis) []model.JurisdictionStats {
	byKey := make(map[string]*model.JurisdictionStats)
	for _, a := range analyses {
		js, ok := byKey[a.State.Key]
		if !ok {
			js = &model.JurisdictionStats{Key: a.State.Key, Name: a.State.Name}
			byKey[a.State.Key] = js
		}
		js.Cases++
		js.TotalEstate += a.Snapshot.TotalValue
		js.TaxNoPlan += a.Savings.TaxNoPlan
		js.Savings += a.Savings.Savings
	}

	out := make([]model.JurisdictionStats, 0, len(byKey))
	for _, js := range byKey {
		out = append(out, *js)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaxNoPlan != out[j].TaxNoPlan {
			return out[i].TaxNoPlan > out[j].TaxNoPlan
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// FilterByJurisdiction returns cases whose jurisdiction matches key.
// Display names and lowercase codes are accepted.
func FilterByJurisdiction(cases []model.Case, key string) []model.Case {
	if key == "" {
		return cases
	}
	want := config.NormalizeJurisdictionKey(key)
	var out []model.Case
	for _, c := range cases {
		if c.Jurisdiction == want {
			out = append(out, c)
		}
	}
	return out
}

// FilterByPlan returns cases whose effective plan type matches plan.
func FilterByPlan(cases []model.Case, plan string) []model.Case {
	if plan == "" {
		return cases
	}
	want, ok := model.ParsePlanType(plan)
	if !ok {
		return nil
	}
	var out []model.Case
	for _, c := range cases {
		if BuildSnapshot(c).PlanType == want {
			out = append(out, c)
		}
	}
	return out
}

// FindCase returns the analysis whose case id matches id, ignoring case.
func FindCase(analyses []CaseAnalysis, id string) (CaseAnalysis, bool) {
	for _, a := range analyses {
		if strings.EqualFold(a.Case.CaseID, id) {
			return a, true
		}
	}
	return CaseAnalysis{}, false
}
