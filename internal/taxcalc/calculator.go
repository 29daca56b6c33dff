// Package taxcalc computes illustrative estate-tax estimates from a jurisdiction's rules.
//
// Every function here is pure. Malformed input is clamped rather than rejected
// because results are advisory and never drive a binding transaction.
package taxcalc

import (
	"math"

	"github.com/theirongolddev/estateplan/internal/model"
)

// ComputeTax returns the estate tax owed on taxableEstate under j.
// The result is never negative and is not rounded; callers round for display.
func ComputeTax(taxableEstate float64, j model.Jurisdiction) float64 {
	if !(taxableEstate > 0) || j.Kind == model.NoEstateTax {
		return 0
	}
	if taxableEstate-j.Exemption <= 0 {
		return 0
	}

	if j.Kind == model.Progressive && len(j.Brackets) > 0 {
		return nonNegative(progressiveTax(taxableEstate, j.Brackets))
	}

	// Flat-rate path, also taken by a progressive table with no brackets.
	return nonNegative((taxableEstate - j.Exemption) * j.FlatRate)
}

// progressiveTax walks brackets in ascending order, taxing only the slice of
// the estate that falls inside each one. The last bracket is treated as open
// even if its UpTo is finite, and a bracket whose upper bound does not exceed
// the previous one is skipped so no dollar is counted twice.
func progressiveTax(estate float64, brackets []model.Bracket) float64 {
	var tax, prev float64
	for i, b := range brackets {
		upper := b.UpTo
		if i == len(brackets)-1 {
			upper = model.Unbounded
		}
		if !(upper > prev) {
			continue
		}

		if amount := math.Min(estate, upper) - prev; amount > 0 && b.Rate > 0 {
			tax += amount * b.Rate
		}
		if estate <= upper {
			break
		}
		prev = upper
	}
	return tax
}

// MarginalRate returns the rate applied to the last dollar of taxableEstate.
func MarginalRate(taxableEstate float64, j model.Jurisdiction) float64 {
	if !(taxableEstate > 0) || j.Kind == model.NoEstateTax || taxableEstate <= j.Exemption {
		return 0
	}
	if j.Kind != model.Progressive || len(j.Brackets) == 0 {
		return j.FlatRate
	}
	for i, b := range j.Brackets {
		if i == len(j.Brackets)-1 || taxableEstate <= b.UpTo {
			return b.Rate
		}
	}
	return 0
}

// EffectiveRate returns tax as a share of the whole estate.
func EffectiveRate(taxableEstate float64, j model.Jurisdiction) float64 {
	if !(taxableEstate > 0) {
		return 0
	}
	return ComputeTax(taxableEstate, j) / taxableEstate
}

func nonNegative(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return v
}
