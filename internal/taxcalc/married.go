package taxcalc

import (
	"math"

	"github.com/theirongolddev/estateplan/internal/model"
)

// EstimateMarriedPlanSavings compares tax when everything passes outright to
// the survivor against a Bypass (AB) or Bypass+QTIP (ABC) split.
//
// The estimate ignores portability elections, GST allocation, and rate changes
// between the two deaths.
func EstimateMarriedPlanSavings(
	totalEstateValue float64,
	debtsAndExpenses float64,
	j model.Jurisdiction,
	planType model.PlanType,
	trust model.TrustValues,
) model.PlanSavings {
	s := splitShares(totalEstateValue, debtsAndExpenses, j)
	s.PlanType = planType

	s.TaxNoPlan = ComputeTax(s.DeceasedShare+s.SurvivorShare, j)

	unsheltered := s.DeceasedShare - s.BypassAmount
	switch planType {
	case model.PlanAB:
		s.TaxWithPlan = ComputeTax(s.SurvivorShare+unsheltered, j)
	case model.PlanABC:
		s.QTIPAmount = clampQTIP(trust.QTIP, unsheltered)
		// QTIP principal is included in the survivor's estate.
		taxable := s.SurvivorShare + math.Max(0, unsheltered-s.QTIPAmount) + s.QTIPAmount
		s.TaxWithPlan = ComputeTax(taxable, j)
	default:
		s.BypassAmount = 0
		s.TaxWithPlan = s.TaxNoPlan
	}

	s.Savings = math.Max(0, s.TaxNoPlan-s.TaxWithPlan)
	return s
}

// splitShares halves the post-debt estate and sizes the bypass trust.
func splitShares(total, debts float64, j model.Jurisdiction) model.PlanSavings {
	net := nonNegative(nonNegative(total) - nonNegative(debts))
	half := net / 2

	var bypass float64
	if j.HasEstateTax() {
		bypass = math.Min(half, nonNegative(j.Exemption))
	}

	return model.PlanSavings{
		DeceasedShare: half,
		SurvivorShare: net - half,
		BypassAmount:  bypass,
	}
}

func clampQTIP(qtip, available float64) float64 {
	return math.Min(nonNegative(qtip), nonNegative(available))
}
