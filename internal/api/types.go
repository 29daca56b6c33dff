package api

import (
	"math"

	"github.com/theirongolddev/estateplan/internal/model"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// TaxRequest asks for the estate tax on one estate. Negative amounts are
// accepted and clamped by the calculator.
type TaxRequest struct {
	Estate         float64 `json:"estate"`
	Jurisdiction   string  `json:"jurisdiction" validate:"required,jurisdiction"`
	IncludeFederal *bool   `json:"include_federal,omitempty"`
}

// TaxResponse is returned from POST /v1/tax.
type TaxResponse struct {
	CalculationID string           `json:"calculation_id"`
	Jurisdiction  JurisdictionJSON `json:"jurisdiction"`
	Estate        float64          `json:"estate"`
	Tax           float64          `json:"tax"`
	MarginalRate  float64          `json:"marginal_rate"`
	EffectiveRate float64          `json:"effective_rate"`
	Combined      *CombinedJSON    `json:"combined,omitempty"`
	Advisories    []string         `json:"advisories,omitempty"`
}

// SavingsRequest asks for a married-plan comparison.
type SavingsRequest struct {
	Total        float64 `json:"total"`
	Debts        float64 `json:"debts"`
	Jurisdiction string  `json:"jurisdiction" validate:"required,jurisdiction"`
	PlanType     string  `json:"plan_type" validate:"required,plantype"`
	QTIP         float64 `json:"qtip"`
}

// SavingsResponse is returned from POST /v1/savings.
type SavingsResponse struct {
	CalculationID string      `json:"calculation_id"`
	Jurisdiction  string      `json:"jurisdiction"`
	Savings       SavingsJSON `json:"savings"`
	Funding       FundingJSON `json:"funding"`
}

// JurisdictionJSON is the wire form of model.Jurisdiction.
// A nil bracket UpTo marks the open top bracket.
type JurisdictionJSON struct {
	Key                 string        `json:"key"`
	Name                string        `json:"name"`
	Kind                string        `json:"kind"`
	Exemption           float64       `json:"exemption"`
	FlatRate            float64       `json:"flat_rate,omitempty"`
	Brackets            []BracketJSON `json:"brackets,omitempty"`
	GSTExemption        float64       `json:"gst_exemption,omitempty"`
	HasInheritanceTax   bool          `json:"has_inheritance_tax"`
	IsCommunityProperty bool          `json:"is_community_property"`
}

// BracketJSON is one bracket on the wire.
type BracketJSON struct {
	UpTo *float64 `json:"up_to"`
	Rate float64  `json:"rate"`
}

// CombinedJSON is the wire form of model.CombinedEstimate.
type CombinedJSON struct {
	State   float64 `json:"state"`
	Federal float64 `json:"federal"`
	Total   float64 `json:"total"`
}

// SavingsJSON is the wire form of model.PlanSavings.
type SavingsJSON struct {
	PlanType      string  `json:"plan_type"`
	DeceasedShare float64 `json:"deceased_share"`
	SurvivorShare float64 `json:"survivor_share"`
	BypassAmount  float64 `json:"bypass_amount"`
	QTIPAmount    float64 `json:"qtip_amount"`
	TaxNoPlan     float64 `json:"tax_no_plan"`
	TaxWithPlan   float64 `json:"tax_with_plan"`
	Savings       float64 `json:"savings"`
}

// FundingJSON is the wire form of model.Funding.
type FundingJSON struct {
	NetEstate float64 `json:"net_estate"`
	Bypass    float64 `json:"bypass"`
	QTIP      float64 `json:"qtip"`
	Survivor  float64 `json:"survivor"`
	Family    float64 `json:"family"`
}

func toJurisdictionJSON(j model.Jurisdiction) JurisdictionJSON {
	out := JurisdictionJSON{
		Key:                 j.Key,
		Name:                j.Name,
		Kind:                j.Kind.String(),
		Exemption:           j.Exemption,
		FlatRate:            j.FlatRate,
		GSTExemption:        j.GSTExemption,
		HasInheritanceTax:   j.HasInheritanceTax,
		IsCommunityProperty: j.IsCommunityProperty,
	}
	for _, b := range j.Brackets {
		bj := BracketJSON{Rate: b.Rate}
		if !b.IsUnbounded() {
			upTo := b.UpTo
			bj.UpTo = &upTo
		}
		out.Brackets = append(out.Brackets, bj)
	}
	return out
}

func toCombinedJSON(c model.CombinedEstimate) *CombinedJSON {
	return &CombinedJSON{
		State:   cents(c.State),
		Federal: cents(c.Federal),
		Total:   cents(c.Total),
	}
}

func toSavingsJSON(s model.PlanSavings) SavingsJSON {
	return SavingsJSON{
		PlanType:      string(s.PlanType),
		DeceasedShare: cents(s.DeceasedShare),
		SurvivorShare: cents(s.SurvivorShare),
		BypassAmount:  cents(s.BypassAmount),
		QTIPAmount:    cents(s.QTIPAmount),
		TaxNoPlan:     cents(s.TaxNoPlan),
		TaxWithPlan:   cents(s.TaxWithPlan),
		Savings:       cents(s.Savings),
	}
}

func toFundingJSON(f model.Funding) FundingJSON {
	return FundingJSON{
		NetEstate: cents(f.NetEstate),
		Bypass:    cents(f.Bypass),
		QTIP:      cents(f.QTIP),
		Survivor:  cents(f.Survivor),
		Family:    cents(f.Family),
	}
}

// cents rounds a dollar amount for the wire.
func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
