package taxcalc

import "github.com/theirongolddev/estateplan/internal/model"

// SplitFunding returns how the net estate is allocated among sub-trusts at
// the first death. For ABC plans without an explicit QTIP amount, the whole
// unsheltered remainder funds the QTIP trust.
func SplitFunding(
	totalEstateValue float64,
	debtsAndExpenses float64,
	j model.Jurisdiction,
	planType model.PlanType,
	trust model.TrustValues,
) model.Funding {
	s := splitShares(totalEstateValue, debtsAndExpenses, j)
	f := model.Funding{NetEstate: s.DeceasedShare + s.SurvivorShare}

	unsheltered := s.DeceasedShare - s.BypassAmount
	switch planType {
	case model.PlanAB:
		f.Bypass = s.BypassAmount
		f.Survivor = s.SurvivorShare + unsheltered
	case model.PlanABC:
		f.Bypass = s.BypassAmount
		if trust.QTIP > 0 {
			f.QTIP = clampQTIP(trust.QTIP, unsheltered)
		} else {
			f.QTIP = nonNegative(unsheltered)
		}
		f.Survivor = s.SurvivorShare + unsheltered - f.QTIP
	default:
		f.Family = f.NetEstate
	}
	return f
}
