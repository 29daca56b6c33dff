package store

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/estateplan/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "sub", "cases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleCase(path string) model.Case {
	return model.Case{
		CaseID:       "smith-2026",
		ClientName:   "John and Jane Smith",
		Jurisdiction: "OR",
		PlanType:     model.PlanAB,
		Grantors: []model.Grantor{
			{Name: "John Smith", Role: "husband"},
			{Name: "Jane Smith", Role: "wife"},
		},
		DebtsAndExpenses: 125_000,
		Assets: []model.Asset{
			{Description: "Residence", Category: "real_estate", Value: decimal.NewFromInt(1_400_000), HeldInTrust: true},
			{Description: "IRA", Value: decimal.NewFromInt(900_000)},
		},
		QTIPValue: 0,
		FilePath:  path,
	}
}

func TestSaveCase_RoundTrip(t *testing.T) {
	c := openTestCache(t)
	cs := sampleCase("/cases/smith.json")

	require.NoError(t, c.SaveCase(cs, 1, 111, 222))

	tracked, err := c.GetTrackedFiles()
	require.NoError(t, err)
	assert.Equal(t, FileInfo{MtimeNs: 111, SizeBytes: 222}, tracked["/cases/smith.json"])

	all, err := c.LoadAllCases()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, cs, all[0].Case)
	assert.Equal(t, 1, all[0].ParseErrors)

	got, err := c.GetCase("smith-2026")
	require.NoError(t, err)
	assert.Equal(t, cs, got.Case)
}

func TestSaveCase_ReplacesAssets(t *testing.T) {
	c := openTestCache(t)
	cs := sampleCase("/cases/smith.json")
	require.NoError(t, c.SaveCase(cs, 0, 1, 1))

	cs.Assets = cs.Assets[:1]
	cs.Assets[0].Value = decimal.RequireFromString("1500000.07")
	require.NoError(t, c.SaveCase(cs, 0, 2, 2))

	got, err := c.GetCase("smith-2026")
	require.NoError(t, err)
	require.Len(t, got.Case.Assets, 1)
	assert.Equal(t, "1500000.07", got.Case.Assets[0].Value.String())

	n, err := c.CaseCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetCase_NotFound(t *testing.T) {
	c := openTestCache(t)
	_, err := c.GetCase("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCase_CascadesAssets(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.SaveCase(sampleCase("/cases/a.json"), 0, 1, 1))

	require.NoError(t, c.DeleteCase("/cases/a.json"))
	require.NoError(t, c.DeleteFileTracker("/cases/a.json"))

	n, err := c.CaseCount()
	require.NoError(t, err)
	assert.Zero(t, n)

	var assets int
	require.NoError(t, c.db.QueryRow("SELECT COUNT(*) FROM assets").Scan(&assets))
	assert.Zero(t, assets)

	tracked, err := c.GetTrackedFiles()
	require.NoError(t, err)
	assert.Empty(t, tracked)
}
