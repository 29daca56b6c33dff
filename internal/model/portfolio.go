package model

// PortfolioSummary holds the top-level aggregate across all loaded cases.
type PortfolioSummary struct {
	Cases        int
	MarriedCases int

	TotalEstate   float64
	TotalTrust    float64
	TotalNonTrust float64
	TotalDebts    float64

	TaxNoPlan   float64
	TaxWithPlan float64
	Savings     float64

	StateTax    float64
	FederalTax  float64
	CombinedTax float64

	ByJurisdiction map[string]int
	ByPlan         map[PlanType]int
}

// JurisdictionStats holds aggregated figures for one jurisdiction.
type JurisdictionStats struct {
	Key         string
	Name        string
	Cases       int
	TotalEstate float64
	TaxNoPlan   float64
	Savings     float64
}
