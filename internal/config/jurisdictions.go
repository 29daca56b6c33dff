package config

import (
	"sort"
	"strings"
	"sync"

	"github.com/theirongolddev/estateplan/internal/model"
)

// FederalKey is the table key for the federal estate tax.
const FederalKey = "FED"

var inf = model.Unbounded

// DefaultJurisdictions holds the built-in estate-tax rules, keyed by postal code.
// Figures are illustrative and should be reviewed each tax year.
var DefaultJurisdictions = map[string]model.Jurisdiction{
	FederalKey: {
		Name: "Federal", Kind: model.FlatRate,
		Exemption: 15_000_000, FlatRate: 0.40, GSTExemption: 15_000_000,
	},

	// Estate-tax states
	"CT": {Name: "Connecticut", Kind: model.FlatRate, Exemption: 15_000_000, FlatRate: 0.12},
	"DC": {
		Name: "District of Columbia", Kind: model.Progressive, Exemption: 4_873_200,
		Brackets: []model.Bracket{
			{UpTo: 4_873_200, Rate: 0},
			{UpTo: 5_873_200, Rate: 0.112},
			{UpTo: 6_873_200, Rate: 0.12},
			{UpTo: 7_873_200, Rate: 0.128},
			{UpTo: 8_873_200, Rate: 0.136},
			{UpTo: 9_873_200, Rate: 0.144},
			{UpTo: 10_873_200, Rate: 0.152},
			{UpTo: inf, Rate: 0.16},
		},
	},
	"HI": {
		Name: "Hawaii", Kind: model.Progressive, Exemption: 5_490_000,
		Brackets: []model.Bracket{
			{UpTo: 5_490_000, Rate: 0},
			{UpTo: 6_490_000, Rate: 0.10},
			{UpTo: 7_490_000, Rate: 0.11},
			{UpTo: 8_490_000, Rate: 0.12},
			{UpTo: 9_490_000, Rate: 0.13},
			{UpTo: 10_490_000, Rate: 0.14},
			{UpTo: 15_490_000, Rate: 0.157},
			{UpTo: inf, Rate: 0.20},
		},
	},
	"IL": {
		Name: "Illinois", Kind: model.Progressive, Exemption: 4_000_000,
		Brackets: []model.Bracket{
			{UpTo: 4_000_000, Rate: 0},
			{UpTo: 5_000_000, Rate: 0.08},
			{UpTo: 6_000_000, Rate: 0.096},
			{UpTo: 7_000_000, Rate: 0.112},
			{UpTo: 8_000_000, Rate: 0.128},
			{UpTo: 9_000_000, Rate: 0.144},
			{UpTo: inf, Rate: 0.16},
		},
	},
	"ME": {
		Name: "Maine", Kind: model.Progressive, Exemption: 7_000_000,
		Brackets: []model.Bracket{
			{UpTo: 7_000_000, Rate: 0},
			{UpTo: 10_000_000, Rate: 0.08},
			{UpTo: 13_000_000, Rate: 0.10},
			{UpTo: inf, Rate: 0.12},
		},
	},
	"MD": {
		Name: "Maryland", Kind: model.FlatRate, Exemption: 5_000_000, FlatRate: 0.16,
		HasInheritanceTax: true,
	},
	"MA": {
		Name: "Massachusetts", Kind: model.Progressive, Exemption: 2_000_000,
		Brackets: []model.Bracket{
			{UpTo: 2_000_000, Rate: 0},
			{UpTo: 3_040_000, Rate: 0.072},
			{UpTo: 5_040_000, Rate: 0.088},
			{UpTo: 7_040_000, Rate: 0.104},
			{UpTo: 10_040_000, Rate: 0.12},
			{UpTo: inf, Rate: 0.16},
		},
	},
	"MN": {
		Name: "Minnesota", Kind: model.Progressive, Exemption: 3_000_000,
		Brackets: []model.Bracket{
			{UpTo: 3_000_000, Rate: 0},
			{UpTo: 7_100_000, Rate: 0.13},
			{UpTo: 8_100_000, Rate: 0.136},
			{UpTo: 9_100_000, Rate: 0.144},
			{UpTo: 10_100_000, Rate: 0.152},
			{UpTo: inf, Rate: 0.16},
		},
	},
	"NY": {Name: "New York", Kind: model.FlatRate, Exemption: 6_940_000, FlatRate: 0.0306},
	"OR": {
		Name: "Oregon", Kind: model.Progressive, Exemption: 1_000_000,
		Brackets: []model.Bracket{
			{UpTo: 1_000_000, Rate: 0},
			{UpTo: 1_500_000, Rate: 0.10},
			{UpTo: 2_500_000, Rate: 0.1025},
			{UpTo: 3_500_000, Rate: 0.105},
			{UpTo: 4_500_000, Rate: 0.11},
			{UpTo: 5_500_000, Rate: 0.115},
			{UpTo: 6_500_000, Rate: 0.12},
			{UpTo: 7_500_000, Rate: 0.13},
			{UpTo: 8_500_000, Rate: 0.14},
			{UpTo: 9_500_000, Rate: 0.15},
			{UpTo: inf, Rate: 0.16},
		},
	},
	"RI": {Name: "Rhode Island", Kind: model.FlatRate, Exemption: 1_802_431, FlatRate: 0.08},
	"VT": {Name: "Vermont", Kind: model.FlatRate, Exemption: 5_000_000, FlatRate: 0.16},
	"WA": {
		Name: "Washington", Kind: model.Progressive, Exemption: 3_000_000, IsCommunityProperty: true,
		Brackets: []model.Bracket{
			{UpTo: 3_000_000, Rate: 0},
			{UpTo: 4_000_000, Rate: 0.10},
			{UpTo: 5_000_000, Rate: 0.15},
			{UpTo: 6_000_000, Rate: 0.17},
			{UpTo: 7_000_000, Rate: 0.19},
			{UpTo: 9_000_000, Rate: 0.23},
			{UpTo: inf, Rate: 0.35},
		},
	},

	// No estate tax
	"AZ": {Name: "Arizona", IsCommunityProperty: true},
	"CA": {Name: "California", IsCommunityProperty: true},
	"CO": {Name: "Colorado"},
	"FL": {Name: "Florida"},
	"ID": {Name: "Idaho", IsCommunityProperty: true},
	"KY": {Name: "Kentucky", HasInheritanceTax: true},
	"LA": {Name: "Louisiana", IsCommunityProperty: true},
	"NE": {Name: "Nebraska", HasInheritanceTax: true},
	"NJ": {Name: "New Jersey", HasInheritanceTax: true},
	"NM": {Name: "New Mexico", IsCommunityProperty: true},
	"NV": {Name: "Nevada", IsCommunityProperty: true},
	"PA": {Name: "Pennsylvania", HasInheritanceTax: true},
	"TX": {Name: "Texas", IsCommunityProperty: true},
	"WI": {Name: "Wisconsin", IsCommunityProperty: true},
}

var (
	tableMu sync.RWMutex
	// activeJurisdictions is DefaultJurisdictions with config overrides applied.
	activeJurisdictions = cloneTable(DefaultJurisdictions)
)

func cloneTable(src map[string]model.Jurisdiction) map[string]model.Jurisdiction {
	out := make(map[string]model.Jurisdiction, len(src))
	for key, j := range src {
		j.Key = key
		j.Brackets = append([]model.Bracket(nil), j.Brackets...)
		out[key] = j
	}
	return out
}

// NormalizeJurisdictionKey maps a postal code or display name to a table key.
// e.g., " oregon " -> "OR", "fed" -> "FED"
func NormalizeJurisdictionKey(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	upper := strings.ToUpper(s)

	tableMu.RLock()
	defer tableMu.RUnlock()

	if _, ok := activeJurisdictions[upper]; ok {
		return upper
	}
	if upper == "FEDERAL" || upper == "US" {
		return FederalKey
	}
	for key, j := range activeJurisdictions {
		if strings.EqualFold(j.Name, s) {
			return key
		}
	}
	return upper
}

// LookupJurisdiction returns the active rules for a key or display name.
// Returns a zero Jurisdiction and false if the key is unknown.
func LookupJurisdiction(key string) (model.Jurisdiction, bool) {
	normalized := NormalizeJurisdictionKey(key)

	tableMu.RLock()
	defer tableMu.RUnlock()

	j, ok := activeJurisdictions[normalized]
	return j, ok
}

// Federal returns the active federal rules.
func Federal() model.Jurisdiction {
	j, _ := LookupJurisdiction(FederalKey)
	return j
}

// Keys returns all active jurisdiction keys in sorted order with FED first.
func Keys() []string {
	tableMu.RLock()
	keys := make([]string, 0, len(activeJurisdictions))
	for k := range activeJurisdictions {
		keys = append(keys, k)
	}
	tableMu.RUnlock()

	sort.Slice(keys, func(i, k int) bool {
		if keys[i] == FederalKey {
			return true
		}
		if keys[k] == FederalKey {
			return false
		}
		return keys[i] < keys[k]
	})
	return keys
}

// All returns every active jurisdiction in Keys order.
func All() []model.Jurisdiction {
	keys := Keys()
	out := make([]model.Jurisdiction, 0, len(keys))
	for _, k := range keys {
		j, _ := LookupJurisdiction(k)
		out = append(out, j)
	}
	return out
}

// ApplyOverrides rebuilds the active table from the defaults plus cfg's overrides.
// An override for an unknown key adds a custom jurisdiction.
func ApplyOverrides(cfg Config) {
	table := cloneTable(DefaultJurisdictions)

	for rawKey, o := range cfg.Jurisdictions.Overrides {
		key := strings.ToUpper(strings.TrimSpace(rawKey))
		if key == "" {
			continue
		}
		j, exists := table[key]
		if !exists {
			j = model.Jurisdiction{Name: key}
		}
		j.Key = key
		table[key] = applyOverride(j, o)
	}

	tableMu.Lock()
	activeJurisdictions = table
	tableMu.Unlock()
}

// ResetOverrides restores the built-in table.
func ResetOverrides() {
	tableMu.Lock()
	activeJurisdictions = cloneTable(DefaultJurisdictions)
	tableMu.Unlock()
}

func applyOverride(j model.Jurisdiction, o JurisdictionOverride) model.Jurisdiction {
	if o.Name != "" {
		j.Name = o.Name
	}
	if o.NoEstateTax != nil && *o.NoEstateTax {
		j.Kind = model.NoEstateTax
		j.Exemption, j.FlatRate, j.Brackets = 0, 0, nil
		return j
	}
	if o.Exemption != nil {
		j.Exemption = *o.Exemption
	}
	if o.FlatRate != nil {
		j.FlatRate = *o.FlatRate
		if j.Kind == model.NoEstateTax {
			j.Kind = model.FlatRate
		}
	}
	if o.GSTExemption != nil {
		j.GSTExemption = *o.GSTExemption
	}
	if len(o.Brackets) > 0 {
		j.Brackets = NormalizeBrackets(o.Brackets)
		j.Kind = model.Progressive
	}
	if j.Kind == model.NoEstateTax && o.Exemption != nil {
		j.Kind = model.FlatRate
	}
	return j
}

// NormalizeBrackets sorts override brackets, drops entries whose upper bound
// does not exceed the previous one, and makes the last bracket unbounded.
func NormalizeBrackets(in []BracketOverride) []model.Bracket {
	out := make([]model.Bracket, 0, len(in))
	for _, b := range in {
		upTo := inf
		if b.UpTo != nil {
			upTo = *b.UpTo
		}
		out = append(out, model.Bracket{UpTo: upTo, Rate: b.Rate})
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].UpTo < out[k].UpTo })

	n := 0
	for i, b := range out {
		if i > 0 && b.UpTo <= out[n-1].UpTo {
			continue
		}
		out[n] = b
		n++
	}
	out = out[:n]
	if n > 0 {
		out[n-1].UpTo = inf
	}
	return out
}
