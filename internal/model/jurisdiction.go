// Package model defines domain types for estate cases, jurisdictions, and plan estimates.
package model

import "math"

// ScheduleKind tags how a jurisdiction taxes estates above its exemption.
type ScheduleKind int

const (
	// NoEstateTax jurisdictions never levy an estate tax.
	NoEstateTax ScheduleKind = iota
	// FlatRate jurisdictions tax everything above the exemption at one rate.
	FlatRate
	// Progressive jurisdictions walk a bracket table.
	Progressive
)

func (k ScheduleKind) String() string {
	switch k {
	case FlatRate:
		return "flat"
	case Progressive:
		return "progressive"
	default:
		return "none"
	}
}

// Unbounded is the upper limit of a jurisdiction's top bracket.
var Unbounded = math.Inf(1)

// Bracket is one marginal tier. UpTo is inclusive.
type Bracket struct {
	UpTo float64
	Rate float64
}

// IsUnbounded reports whether the bracket has no upper limit.
func (b Bracket) IsUnbounded() bool {
	return math.IsInf(b.UpTo, 1)
}

// Jurisdiction holds the estate-tax rules for one state or the federal system.
// Values are static and never mutated after load.
type Jurisdiction struct {
	Key  string
	Name string
	Kind ScheduleKind

	Exemption float64
	FlatRate  float64
	Brackets  []Bracket

	// GSTExemption is informational; it is shown but never computed.
	GSTExemption float64

	// Advisory flags only.
	HasInheritanceTax   bool
	IsCommunityProperty bool
}

// HasEstateTax reports whether the jurisdiction can ever produce a non-zero tax.
func (j Jurisdiction) HasEstateTax() bool {
	return j.Kind != NoEstateTax
}

// TopRate returns the highest marginal rate the jurisdiction applies.
func (j Jurisdiction) TopRate() float64 {
	switch j.Kind {
	case FlatRate:
		return j.FlatRate
	case Progressive:
		if len(j.Brackets) == 0 {
			return j.FlatRate
		}
		top := 0.0
		for _, b := range j.Brackets {
			if b.Rate > top {
				top = b.Rate
			}
		}
		return top
	default:
		return 0
	}
}

// Advisories returns the human-readable notes attached to the jurisdiction's flags.
func (j Jurisdiction) Advisories() []string {
	var notes []string
	if j.HasInheritanceTax {
		notes = append(notes, "Levies an inheritance tax on beneficiaries; not included in estimates.")
	}
	if j.IsCommunityProperty {
		notes = append(notes, "Community property state; each spouse owns half of marital assets.")
	}
	if j.GSTExemption > 0 {
		notes = append(notes, "Generation-skipping transfer exemption applies separately.")
	}
	return notes
}
