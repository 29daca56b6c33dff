package model

// TrustValues carries user-entered sub-trust amounts used by ABC estimates.
type TrustValues struct {
	QTIP float64
}

// PlanSavings compares estate tax with and without a credit-shelter split.
type PlanSavings struct {
	PlanType      PlanType
	DeceasedShare float64
	SurvivorShare float64
	BypassAmount  float64
	QTIPAmount    float64
	TaxNoPlan     float64
	TaxWithPlan   float64
	Savings       float64
}

// Funding is how the estate flows into sub-trusts at the first death.
type Funding struct {
	NetEstate float64
	Bypass    float64
	QTIP      float64
	Survivor  float64
	Family    float64 // Individual plans only
}

// CombinedEstimate holds state and federal tax for one estate.
type CombinedEstimate struct {
	Estate  float64
	State   float64
	Federal float64
	Total   float64
}
