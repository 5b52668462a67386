package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannonQ/pow-tracker-site/internal/fairness"
	"github.com/cannonQ/pow-tracker-site/internal/metrics"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/risk"
)

var (
	now     = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func testRecords() []models.Record {
	return []models.Record{
		{
			Name: "shady",
			Project: &models.Project{
				Project:    "Shady",
				Ticker:     "SHD",
				LaunchType: models.LaunchFairWithSuspicion,
				LaunchDate: models.ParseDate("2014-01-01"),
				Supply:     &models.Supply{MaxSupply: models.Float(84), CurrentSupply: models.Float(30)},
			},
		},
		{
			Name: "bitcoin",
			Project: &models.Project{
				Project:    "Bitcoin",
				Ticker:     "BTC",
				LaunchType: models.LaunchFair,
				LaunchDate: models.ParseDate("2009-01-03"),
				Supply:     &models.Supply{MaxSupply: models.Float(21000000), CurrentSupply: models.Float(19500000)},
				MarketData: &models.MarketData{FDMC: models.Float(2e12)},
			},
		},
		{
			Name: "example",
			Project: &models.Project{
				Project:    "Example",
				Ticker:     "EXM",
				LaunchType: models.LaunchPremined,
				HasPremine: true,
				LaunchDate: models.NewDate(now.AddDate(0, 0, -100)),
				Supply:     &models.Supply{MaxSupply: models.Float(1000000), CurrentSupply: models.Float(300000)},
				Emission:   &models.Emission{DailyEmission: models.Float(1000)},
			},
			Genesis: &models.GenesisAllocation{
				HasPremine:                true,
				TotalGenesisAllocationPct: models.Float(25),
				AllocationTiers: map[models.TierID]*models.Tier{
					models.Tier1ProfitSeeking: {TotalPct: models.Float(15)},
					models.Tier3Community:     {TotalPct: models.Float(5)},
				},
				AvailableForMiningGenesisPct: models.Float(75),
			},
		},
		{
			Name: "emitter",
			Project: &models.Project{
				Project:    "Emitter",
				Ticker:     "EMT",
				LaunchType: models.LaunchFair,
				LaunchDate: models.ParseDate("2021-01-01"),
				Supply:     &models.Supply{MaxSupply: models.Float(100), CurrentSupply: models.Float(50)},
				MarketData: &models.MarketData{FDMC: models.Float(5e6)},
			},
			Genesis: &models.GenesisAllocation{
				HasEmissionAllocation:     true,
				TotalGenesisAllocationPct: models.Float(10),
			},
		},
	}
}

func testViews() []ProjectView {
	var views []ProjectView
	for _, rec := range testRecords() {
		views = append(views, Build(rec, now))
	}
	return views
}

func names(views []ProjectView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

func TestBuild_PreminedProject(t *testing.T) {
	v := Build(testRecords()[2], now)

	assert.Equal(t, fairness.CategoryPremined, v.Badge.Category)
	assert.Equal(t, fairness.ClassPremine, v.Badge.CSSClass)
	assert.Equal(t, 25.0, v.PreminePct)
	require.NotNil(t, v.MinedPct)
	assert.InDelta(t, 5.0, *v.MinedPct, 1e-9)
	assert.Equal(t, metrics.ParityPending, v.Parity.State)
	require.NotNil(t, v.Parity.DaysRemaining)
	assert.Equal(t, 150, *v.Parity.DaysRemaining)
	assert.False(t, v.ParityAchieved)
	assert.Equal(t, "3 months ago", v.LaunchAge)
	require.NotNil(t, v.AllocationDiscrepancy)
	assert.InDelta(t, -5.0, *v.AllocationDiscrepancy, 1e-9)
	assert.Nil(t, v.Vesting)
	assert.Equal(t, now, v.GeneratedAt)

	var total float64
	for _, s := range v.Composition {
		total += s.Percent
	}
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestBuild_FairProject(t *testing.T) {
	v := Build(testRecords()[1], now)

	assert.Equal(t, fairness.CategoryFair, v.Badge.Category)
	assert.Equal(t, 0.0, v.PreminePct)
	require.NotNil(t, v.MinedPct)
	assert.Equal(t, *v.CurrentSupplyPct, *v.MinedPct)
	assert.Nil(t, v.Concentration)
	assert.Nil(t, v.AllocationDiscrepancy)
	assert.Equal(t, metrics.ParityIndeterminate, v.Parity.State)
}

func TestSnapshot(t *testing.T) {
	v := Build(testRecords()[2], now)
	v.Vesting = nil

	snap := Snapshot(v)
	assert.Equal(t, "example", snap.Name)
	assert.Equal(t, "EXM", snap.Ticker)
	assert.Equal(t, "premined", snap.Category)
	assert.Equal(t, 25.0, snap.PreminePct)
	assert.InDelta(t, 5.0, *snap.MinedPct, 1e-9)
	assert.Nil(t, snap.FDMC)
	assert.Nil(t, snap.VestingProgressPct)
	assert.Equal(t, now, snap.Timestamp)
}

func TestParseQuery(t *testing.T) {
	q := ParseQuery("PREMINE", "fdmc", "  btc ")
	assert.Equal(t, Query{Filter: FilterPremine, Sort: SortFDMC, Search: "btc"}, q)

	q = ParseQuery("bogus", "bogus", "")
	assert.Equal(t, Query{Filter: FilterAll, Sort: SortName}, q)
}

func TestSelectAndOrder_Filters(t *testing.T) {
	views := testViews()

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"bitcoin", "emitter", "example", "shady"}},
		{FilterFair, []string{"bitcoin"}},
		{FilterPremine, []string{"emitter", "example"}},
		{FilterEmission, []string{"emitter"}},
		{FilterSuspicious, []string{"shady"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := SelectAndOrder(views, Query{Filter: tt.filter, Sort: SortName})
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSelectAndOrder_Sorts(t *testing.T) {
	views := testViews()

	tests := []struct {
		sort SortKey
		want []string
	}{
		{SortName, []string{"bitcoin", "emitter", "example", "shady"}},
		{SortFDMC, []string{"bitcoin", "emitter", "example", "shady"}},
		{SortLaunch, []string{"example", "emitter", "shady", "bitcoin"}},
		{SortPremine, []string{"example", "emitter", "bitcoin", "shady"}},
		{SortMined, []string{"bitcoin", "emitter", "shady", "example"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			got := SelectAndOrder(views, Query{Filter: FilterAll, Sort: tt.sort})
			assert.Equal(t, tt.want, names(got))
		})
	}

	// input order untouched
	assert.Equal(t, []string{"shady", "bitcoin", "example", "emitter"}, names(views))
}

func TestSelectAndOrder_Search(t *testing.T) {
	views := testViews()

	assert.Equal(t, []string{"bitcoin"}, names(SelectAndOrder(views, ParseQuery("", "", "BT"))))
	assert.Equal(t, []string{"example"}, names(SelectAndOrder(views, ParseQuery("", "", "exa"))))
	assert.Empty(t, SelectAndOrder(views, ParseQuery("fair", "", "shady")))
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(testViews())
	assert.Equal(t, Stats{Total: 4, Fair: 1, Premined: 1, Emission: 1, Suspicious: 1}, stats)
}

type fakeRisk struct {
	err   error
	calls []string
	at    []time.Time
}

func (f *fakeRisk) CheckProjectRiskAt(ctx context.Context, rec *models.Record, at time.Time) (*risk.RiskAssessment, error) {
	f.calls = append(f.calls, rec.Name)
	f.at = append(f.at, at)
	if f.err != nil {
		return nil, f.err
	}
	return &risk.RiskAssessment{IsAcceptable: true, RiskLevel: 0.1}, nil
}

func TestBuilder_BuildAll(t *testing.T) {
	records := append(testRecords(), models.Record{Name: "empty"})
	checker := &fakeRisk{}

	views := NewBuilder(checker, discard).BuildAll(context.Background(), records, now)
	require.Len(t, views, 4)
	assert.Equal(t, []string{"shady", "bitcoin", "example", "emitter"}, checker.calls)
	// 风险评估与指标使用同一参考时间
	for _, at := range checker.at {
		assert.Equal(t, now, at)
	}
	for _, v := range views {
		require.NotNil(t, v.Risk)
		assert.Equal(t, 0.1, v.Risk.RiskLevel)
	}
}

func TestBuilder_RiskError(t *testing.T) {
	views := NewBuilder(&fakeRisk{err: errors.New("boom")}, discard).BuildAll(context.Background(), testRecords(), now)
	require.Len(t, views, 4)
	assert.Nil(t, views[0].Risk)
}

func TestBuilder_BuildOne(t *testing.T) {
	b := NewBuilder(nil, discard)

	v, ok := b.BuildOne(context.Background(), testRecords(), "emitter", now)
	require.True(t, ok)
	assert.Equal(t, fairness.CategoryEmission, v.Badge.Category)
	assert.Nil(t, v.Risk)

	_, ok = b.BuildOne(context.Background(), testRecords(), "missing", now)
	assert.False(t, ok)
}
