package taxcalc

import "github.com/theirongolddev/estateplan/internal/model"

// EstimateCombined computes state tax on the estate, then federal tax on the
// estate net of the state tax paid. When state is the federal system itself
// only the federal tax is reported.
func EstimateCombined(estate float64, state, federal model.Jurisdiction) model.CombinedEstimate {
	est := model.CombinedEstimate{Estate: nonNegative(estate)}

	if state.Key != federal.Key {
		est.State = ComputeTax(est.Estate, state)
	}
	est.Federal = ComputeTax(est.Estate-est.State, federal)
	est.Total = est.State + est.Federal
	return est
}
