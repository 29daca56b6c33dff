package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/estateplan/internal/model"
)

// writeCase creates a temp case file and returns a DiscoveredFile for it.
func writeCase(t *testing.T, name, body string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return DiscoveredFile{
		Path:   path,
		CaseID: name[:len(name)-len(filepath.Ext(name))],
	}
}

const marriedCase = `{
  "id": "smith-2026",
  "client_name": "John and Jane Smith",
  "jurisdiction": "oregon",
  "plan_type": "ABC",
  "grantors": [{"name": "John Smith", "role": "husband"}, {"name": "Jane Smith", "role": "wife"}],
  "debts_and_expenses": "$125,000.00",
  "assets": [
    {"description": "Residence", "category": "real_estate", "value": "$1,400,000", "held_in_trust": true},
    {"description": "Brokerage", "category": "securities", "value": 2250000.5, "held_in_trust": true},
    {"description": "IRA", "category": "retirement", "value": "900,000", "held_in_trust": false}
  ],
  "trust_values": {"qtip": "500000"}
}`

func TestParseFile_MarriedCase(t *testing.T) {
	df := writeCase(t, "smith.json", marriedCase)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	assert.Zero(t, result.ParseErrors)

	c := result.Case
	assert.Equal(t, "smith-2026", c.CaseID)
	assert.Equal(t, "John and Jane Smith", c.ClientName)
	assert.Equal(t, "OR", c.Jurisdiction)
	assert.Equal(t, model.PlanABC, c.PlanType)
	require.Len(t, c.Grantors, 2)
	assert.Equal(t, "wife", c.Grantors[1].Role)
	assert.InDelta(t, 125_000, c.DebtsAndExpenses, 0.001)
	require.Len(t, c.Assets, 3)
	assert.Equal(t, "2250000.5", c.Assets[1].Value.String())
	assert.False(t, c.Assets[2].HeldInTrust)
	assert.InDelta(t, 500_000, c.QTIPValue, 0.001)
	assert.Equal(t, df.Path, c.FilePath)
}

func TestParseFile_IDFallsBackToFileName(t *testing.T) {
	df := writeCase(t, "doe-trust.json", `{"client_name":"Doe","jurisdiction":"NY","grantors":[{"name":"Doe"}],"assets":[]}`)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	assert.Equal(t, "doe-trust", result.Case.CaseID)
	assert.Empty(t, result.Case.PlanType)
}

func TestParseBytes_IDFallsBackToUUID(t *testing.T) {
	result := ParseBytes([]byte(`{"client_name":"Anon"}`), DiscoveredFile{Path: "stdin"})
	require.NoError(t, result.Err)
	assert.Len(t, result.Case.CaseID, 36)
}

func TestParseFile_BadValuesAreCounted(t *testing.T) {
	df := writeCase(t, "bad.json", `{
  "client_name": "Bad Values",
  "jurisdiction": "MA",
  "debts_and_expenses": "lots",
  "assets": [
    {"description": "Painting", "value": "priceless"},
    {"description": "Cash", "value": "$10,000"}
  ]
}`)

	result := ParseFile(df)
	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.ParseErrors)
	assert.Zero(t, result.Case.DebtsAndExpenses)
	assert.True(t, result.Case.Assets[0].Value.IsZero())
	assert.Equal(t, "10000", result.Case.Assets[1].Value.String())
}

func TestParseFile_InvalidJSON(t *testing.T) {
	df := writeCase(t, "broken.json", `{"client_name": `)

	result := ParseFile(df)
	assert.Error(t, result.Err)
}

func TestParseFile_MissingFile(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "gone.json")})
	assert.ErrorIs(t, result.Err, os.ErrNotExist)
}

func TestParseBytes_AssetValuesStayExact(t *testing.T) {
	result := ParseBytes([]byte(`{
  "client_name": "Exact",
  "assets": [
    {"description": "Holding", "value": "$12,345,678,901,234,567.89"},
    {"description": "Coins", "value": "0.10"}
  ]
}`), DiscoveredFile{Path: "exact.json"})
	require.NoError(t, result.Err)
	require.Len(t, result.Case.Assets, 2)

	// Eighteen significant digits do not survive a float64.
	assert.Equal(t, "12345678901234567.89", result.Case.Assets[0].Value.String())
	assert.Equal(t, "0.1", result.Case.Assets[1].Value.String())
}
