package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PlanType is the trust structure used by a case.
type PlanType string

const (
	PlanIndividual PlanType = "Individual"
	PlanAB         PlanType = "AB"
	PlanABC        PlanType = "ABC"
)

// ParsePlanType resolves user input to a PlanType. Unknown values report false.
func ParsePlanType(s string) (PlanType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INDIVIDUAL", "SINGLE", "A":
		return PlanIndividual, true
	case "AB":
		return PlanAB, true
	case "ABC":
		return PlanABC, true
	default:
		return "", false
	}
}

// IsMarried reports whether the plan splits the estate between two grantors.
func (p PlanType) IsMarried() bool {
	return p == PlanAB || p == PlanABC
}

// Grantor is a person creating the trust.
type Grantor struct {
	Name string
	Role string
}

// Asset is one line of a client's asset schedule. Value keeps the exact
// amount entered in the case file.
type Asset struct {
	Description string
	Category    string
	Value       decimal.Decimal
	HeldInTrust bool
}

// Case is one client matter loaded from a case file.
type Case struct {
	CaseID           string
	ClientName       string
	Jurisdiction     string
	PlanType         PlanType
	Grantors         []Grantor
	DebtsAndExpenses float64
	Assets           []Asset
	QTIPValue        float64
	FilePath         string
}

// Snapshot is the derived view of a case that feeds the calculator.
// It is recomputed on every use and never stored.
type Snapshot struct {
	TotalValue    float64
	NonTrustValue float64
	TrustValue    float64
	GrantorCount  int
	PlanType      PlanType
}
