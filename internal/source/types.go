package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// RawCase is the on-disk JSON shape of a client case file.
type RawCase struct {
	ID               string         `json:"id,omitempty"`
	ClientName       string         `json:"client_name"`
	Jurisdiction     string         `json:"jurisdiction"`
	PlanType         string         `json:"plan_type,omitempty"`
	Grantors         []RawGrantor   `json:"grantors"`
	DebtsAndExpenses CurrencyField  `json:"debts_and_expenses,omitempty"`
	Assets           []RawAsset     `json:"assets"`
	TrustValues      *RawTrustValue `json:"trust_values,omitempty"`
}

// RawGrantor is one grantor entry.
type RawGrantor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// RawAsset is one row of the asset schedule.
type RawAsset struct {
	Description string        `json:"description"`
	Category    string        `json:"category,omitempty"`
	Value       CurrencyField `json:"value"`
	HeldInTrust bool          `json:"held_in_trust"`
}

// RawTrustValue holds user-entered sub-trust amounts.
type RawTrustValue struct {
	QTIP CurrencyField `json:"qtip,omitempty"`
}

// CurrencyField accepts either a JSON string ("$1,250,000.00") or a bare number.
// The text is kept as written and parsed later so a bad value can be counted
// without failing the whole file.
type CurrencyField string

// UnmarshalJSON implements json.Unmarshaler.
func (c *CurrencyField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("currency string: %w", err)
		}
		*c = CurrencyField(s)
	default:
		*c = CurrencyField(strings.TrimSpace(string(data)))
	}
	return nil
}

// DiscoveredFile represents a case file found during directory scanning.
type DiscoveredFile struct {
	Path   string
	CaseID string // derived from the file name
	Folder string // first directory under the cases root, "" for top-level files
}
