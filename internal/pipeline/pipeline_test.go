package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/estateplan/internal/model"
	"github.com/theirongolddev/estateplan/internal/source"
	"github.com/theirongolddev/estateplan/internal/store"
)

func writeCaseFile(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func caseJSON(id, jurisdiction, plan string, grantors int, value string) string {
	gs := `[{"name":"A"}]`
	if grantors == 2 {
		gs = `[{"name":"A"},{"name":"B"}]`
	}
	return fmt.Sprintf(`{"id":%q,"client_name":"Client %s","jurisdiction":%q,"plan_type":%q,"grantors":%s,
"assets":[{"description":"House","value":%q,"held_in_trust":true},{"description":"IRA","value":"$500,000"}]}`,
		id, id, jurisdiction, plan, gs, value)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeCaseFile(t, dir, "a.json", caseJSON("a", "OR", "AB", 2, "$2,000,000"))
	writeCaseFile(t, dir, "lee/b.json", caseJSON("b", "NY", "", 1, "1,000,000"))
	writeCaseFile(t, dir, "lee/broken.json", `{"id":`)

	var calls int
	result, err := Load(dir, func(current, total int) {
		calls++
		assert.LessOrEqual(t, current, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 2, result.ParsedFiles)
	assert.Equal(t, 1, result.FileErrors)
	assert.Equal(t, 2, result.FolderCount)
	assert.Len(t, result.Cases, 2)
	assert.Equal(t, 3, calls)
}

func TestLoad_EmptyDir(t *testing.T) {
	result, err := Load(filepath.Join(t.TempDir(), "none"), nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalFiles)
	assert.Empty(t, result.Cases)
}

func TestLoadWithCache_ReparsesOnlyChangedFiles(t *testing.T) {
	dir := t.TempDir()
	aPath := writeCaseFile(t, dir, "a.json", caseJSON("a", "OR", "AB", 2, "$2,000,000"))
	bPath := writeCaseFile(t, dir, "b.json", caseJSON("b", "MA", "", 1, "$3,000,000"))

	cache, err := store.Open(filepath.Join(t.TempDir(), "cases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	first, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Reparsed)
	assert.Zero(t, first.CacheHits)

	second, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)
	assert.Zero(t, second.Reparsed)
	assert.ElementsMatch(t, first.Cases, second.Cases)

	// Touch one file with a new size and mtime.
	writeCaseFile(t, dir, "a.json", caseJSON("a", "OR", "ABC", 2, "$2,500,000"))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(aPath, future, future))

	third, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.CacheHits)
	assert.Equal(t, 1, third.Reparsed)

	require.NoError(t, os.Remove(bPath))
	fourth, err := LoadWithCache(dir, cache, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fourth.Pruned)
	require.Len(t, fourth.Cases, 1)
	assert.Equal(t, model.PlanABC, fourth.Cases[0].PlanType)

	n, err := cache.CaseCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildSnapshot(t *testing.T) {
	c := model.Case{
		Grantors: []model.Grantor{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		Assets: []model.Asset{
			{Value: decimal.RequireFromString("0.1"), HeldInTrust: true},
			{Value: decimal.RequireFromString("0.2"), HeldInTrust: true},
			{Value: decimal.NewFromInt(1_000_000)},
		},
	}

	snap := BuildSnapshot(c)
	assert.Equal(t, 0.3, snap.TrustValue)
	assert.InDelta(t, 1_000_000.3, snap.TotalValue, 1e-6)
	assert.Equal(t, 2, snap.GrantorCount)
	assert.Equal(t, model.PlanAB, snap.PlanType)

	single := BuildSnapshot(model.Case{})
	assert.Equal(t, 1, single.GrantorCount)
	assert.Equal(t, model.PlanIndividual, single.PlanType)

	declared := BuildSnapshot(model.Case{PlanType: model.PlanABC, Grantors: []model.Grantor{{}, {}}})
	assert.Equal(t, model.PlanABC, declared.PlanType)
}

func TestAnalyzeCase_MarriedOregon(t *testing.T) {
	c := model.Case{
		CaseID:       "smith",
		Jurisdiction: "OR",
		PlanType:     model.PlanAB,
		Grantors:     []model.Grantor{{Name: "A"}, {Name: "B"}},
		Assets:       []model.Asset{{Value: decimal.NewFromInt(3_000_000), HeldInTrust: true}},
	}

	a := AnalyzeCase(c, "FED", true)
	assert.False(t, a.UnknownJurisdiction)
	assert.Equal(t, "OR", a.State.Key)
	assert.Equal(t, "OR", a.Planning.Key)
	assert.InDelta(t, 205_000, a.StateTax, 0.01)
	assert.InDelta(t, 205_000, a.Savings.TaxNoPlan, 0.01)
	// The bypass shelters 1M; the survivor's 2M estate is taxed at 101,250.
	assert.InDelta(t, 101_250, a.Savings.TaxWithPlan, 0.01)
	assert.InDelta(t, 103_750, a.Savings.Savings, 0.01)
	assert.InDelta(t, 1_000_000, a.Funding.Bypass, 0.01)
	assert.InDelta(t, 2_000_000, a.Funding.Survivor, 0.01)
	assert.InDelta(t, a.StateTax, a.Combined.State, 0.01)
	assert.Zero(t, a.Combined.Federal)
}

func TestAnalyzeCase_NoTaxStateUsesFederalForPlanning(t *testing.T) {
	c := model.Case{
		Jurisdiction: "CA",
		PlanType:     model.PlanAB,
		Grantors:     []model.Grantor{{}, {}},
		Assets:       []model.Asset{{Value: decimal.NewFromInt(40_000_000)}},
	}

	withFed := AnalyzeCase(c, "", true)
	assert.Equal(t, "CA", withFed.State.Key)
	assert.Equal(t, "FED", withFed.Planning.Key)
	assert.Zero(t, withFed.StateTax)
	assert.Positive(t, withFed.Savings.Savings)
	assert.InDelta(t, 10_000_000, withFed.Combined.Federal, 0.01)

	stateOnly := AnalyzeCase(c, "", false)
	assert.Equal(t, "CA", stateOnly.Planning.Key)
	assert.Zero(t, stateOnly.Savings.Savings)
	assert.Zero(t, stateOnly.Combined.Total)
}

func TestAnalyzeCase_IndividualAndDebts(t *testing.T) {
	c := model.Case{
		Jurisdiction:     "NY",
		DebtsAndExpenses: 60_000,
		Grantors:         []model.Grantor{{}},
		Assets:           []model.Asset{{Value: decimal.NewFromInt(8_000_000)}},
	}

	a := AnalyzeCase(c, "FED", false)
	assert.InDelta(t, 7_940_000, a.NetEstate, 0.01)
	assert.InDelta(t, 30_600, a.StateTax, 0.01)
	assert.Zero(t, a.Savings.Savings)
	assert.InDelta(t, 7_940_000, a.Funding.Family, 0.01)
}

func TestAnalyzeCase_UnknownJurisdiction(t *testing.T) {
	a := AnalyzeCase(model.Case{Jurisdiction: "ZZ"}, "OR", true)
	assert.True(t, a.UnknownJurisdiction)
	assert.Equal(t, "OR", a.State.Key)

	b := AnalyzeCase(model.Case{}, "OR", true)
	assert.False(t, b.UnknownJurisdiction)
	assert.Equal(t, "OR", b.State.Key)

	c := AnalyzeCase(model.Case{Jurisdiction: "ZZ"}, "", true)
	assert.True(t, c.UnknownJurisdiction)
	assert.Equal(t, "FED", c.State.Key)
}

func TestSummarizeAndAggregate(t *testing.T) {
	cases := []model.Case{
		{CaseID: "b", Jurisdiction: "OR", PlanType: model.PlanAB, Grantors: []model.Grantor{{}, {}},
			Assets: []model.Asset{{Value: decimal.NewFromInt(3_000_000), HeldInTrust: true}}},
		{CaseID: "a", Jurisdiction: "OR", Grantors: []model.Grantor{{}},
			Assets: []model.Asset{{Value: decimal.NewFromInt(1_500_000)}}},
		{CaseID: "c", Jurisdiction: "TX", Grantors: []model.Grantor{{}},
			Assets: []model.Asset{{Value: decimal.NewFromInt(500_000)}}},
	}

	analyses := AnalyzeAll(cases, "FED", true)
	require.Len(t, analyses, 3)
	assert.Equal(t, "a", analyses[0].Case.CaseID)

	s := Summarize(analyses)
	assert.Equal(t, 3, s.Cases)
	assert.Equal(t, 1, s.MarriedCases)
	assert.InDelta(t, 5_000_000, s.TotalEstate, 0.01)
	assert.InDelta(t, 3_000_000, s.TotalTrust, 0.01)
	assert.InDelta(t, 205_000+50_000, s.TaxNoPlan, 0.01)
	assert.InDelta(t, 103_750, s.Savings, 0.01)
	assert.Equal(t, 2, s.ByJurisdiction["OR"])
	assert.Equal(t, 1, s.ByPlan[model.PlanAB])
	assert.Equal(t, 2, s.ByPlan[model.PlanIndividual])

	js := AggregateJurisdictions(analyses)
	require.Len(t, js, 2)
	assert.Equal(t, "OR", js[0].Key)
	assert.Equal(t, 2, js[0].Cases)

	found, ok := FindCase(analyses, "B")
	require.True(t, ok)
	assert.Equal(t, "b", found.Case.CaseID)
}

func TestFilters(t *testing.T) {
	cases := []model.Case{
		{CaseID: "1", Jurisdiction: "OR", Grantors: []model.Grantor{{}, {}}},
		{CaseID: "2", Jurisdiction: "NY", PlanType: model.PlanABC, Grantors: []model.Grantor{{}, {}}},
		{CaseID: "3", Jurisdiction: "OR", Grantors: []model.Grantor{{}}},
	}

	assert.Len(t, FilterByJurisdiction(cases, "oregon"), 2)
	assert.Len(t, FilterByJurisdiction(cases, ""), 3)
	assert.Empty(t, FilterByJurisdiction(cases, "CA"))

	ab := FilterByPlan(cases, "ab")
	require.Len(t, ab, 1)
	assert.Equal(t, "1", ab[0].CaseID)
	assert.Len(t, FilterByPlan(cases, "individual"), 1)
	assert.Nil(t, FilterByPlan(cases, "xyz"))
}

func BenchmarkLoad(b *testing.B) {
	dir := b.TempDir()
	for i := 0; i < 200; i++ {
		writeCaseFile(b, dir, fmt.Sprintf("case-%03d.json", i), caseJSON(fmt.Sprint(i), "MA", "AB", 2, "$4,250,000.00"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Load(dir, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func TestBuildSnapshot_SumsParsedValuesExactly(t *testing.T) {
	assets := strings.Repeat(`{"description": "Coin", "value": "$0.10", "held_in_trust": true},`, 10)
	body := `{"client_name": "Dimes", "assets": [` + strings.TrimSuffix(assets, ",") + `]}`

	parsed := source.ParseBytes([]byte(body), source.DiscoveredFile{Path: "dimes.json"})
	require.NoError(t, parsed.Err)
	require.Len(t, parsed.Case.Assets, 10)

	// Ten float64 0.1s add up to 0.9999999999999999.
	snap := BuildSnapshot(parsed.Case)
	assert.Equal(t, 1.0, snap.TrustValue)
	assert.Equal(t, 1.0, snap.TotalValue)
}
