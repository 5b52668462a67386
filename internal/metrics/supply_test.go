package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

var now = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func fairProject() *models.Project {
	return &models.Project{
		Project:    "bitcoin",
		Ticker:     "BTC",
		LaunchType: models.LaunchFair,
		LaunchDate: models.ParseDate("2009-01-03"),
		Supply: &models.Supply{
			MaxSupply:     models.Float(21000000),
			CurrentSupply: models.Float(19500000),
		},
	}
}

func preminedProject() *models.Project {
	return &models.Project{
		Project:    "example",
		Ticker:     "EXM",
		LaunchType: models.LaunchPremined,
		HasPremine: true,
		LaunchDate: models.NewDate(now.AddDate(0, 0, -100)),
		Supply: &models.Supply{
			MaxSupply:     models.Float(1000000),
			CurrentSupply: models.Float(300000),
		},
		Emission: &models.Emission{DailyEmission: models.Float(1000)},
	}
}

func genesis25() *models.GenesisAllocation {
	return &models.GenesisAllocation{
		HasPremine:                true,
		TotalGenesisAllocationPct: models.Float(25),
		AllocationTiers: map[models.TierID]*models.Tier{
			models.Tier1ProfitSeeking:    {TotalPct: models.Float(15)},
			models.Tier2EntityControlled: {TotalPct: models.Float(5)},
			models.Tier3Community:        {TotalPct: models.Float(5)},
		},
		AvailableForMiningGenesisPct: models.Float(75),
	}
}

func TestCurrentSupplyPct(t *testing.T) {
	pct := CurrentSupplyPct(fairProject())
	require.NotNil(t, pct)
	assert.InDelta(t, 92.857142, *pct, 1e-5)

	p := fairProject()
	p.Supply.MaxSupply = models.Float(0)
	assert.Nil(t, CurrentSupplyPct(p))

	p = fairProject()
	p.Supply.CurrentSupply = nil
	assert.Nil(t, CurrentSupplyPct(p))

	assert.Nil(t, CurrentSupplyPct(&models.Project{}))
}

func TestMinedPct_FairLaunch(t *testing.T) {
	p := fairProject()
	mined := MinedPct(p, nil)
	require.NotNil(t, mined)
	assert.Equal(t, *CurrentSupplyPct(p), *mined)
	assert.InDelta(t, 92.857, *mined, 1e-3)
}

func TestMinedPct_Premine(t *testing.T) {
	mined := MinedPct(preminedProject(), genesis25())
	require.NotNil(t, mined)
	assert.InDelta(t, 5.0, *mined, 1e-9)
}

func TestMinedPct_FlooredAtZero(t *testing.T) {
	p := preminedProject()
	p.Supply.CurrentSupply = models.Float(100000) // 10% of max
	mined := MinedPct(p, genesis25())
	require.NotNil(t, mined)
	assert.Equal(t, 0.0, *mined)

	for _, current := range []float64{0, 1, 50000, 249999, 250000, 900000} {
		p.Supply.CurrentSupply = models.Float(current)
		assert.GreaterOrEqual(t, *MinedPct(p, genesis25()), 0.0)
	}
}

func TestMinedPct_GenesisOnlyFlag(t *testing.T) {
	p := preminedProject()
	p.HasPremine = false
	g := genesis25()
	g.HasPremine = false
	g.HasEmissionAllocation = true

	mined := MinedPct(p, g)
	require.NotNil(t, mined)
	assert.InDelta(t, 5.0, *mined, 1e-9)

	g.HasEmissionAllocation = false
	assert.InDelta(t, 30.0, *MinedPct(p, g), 1e-9)
}

func TestComposition_SumsTo100(t *testing.T) {
	slices := Composition(preminedProject(), genesis25())
	require.Len(t, slices, 4)

	var sum float64
	for _, s := range slices {
		sum += s.Percent
	}
	assert.InDelta(t, 100.0, sum, 1e-9)

	assert.Equal(t, LabelMined, slices[0].Label)
	assert.Equal(t, ClassMining, slices[0].Category)
	assert.InDelta(t, 50000.0, slices[0].Tokens, 1e-6)
	assert.Equal(t, "tier-1", slices[1].Category)
	assert.InDelta(t, 150000.0, slices[1].Tokens, 1e-6)
	assert.InDelta(t, 50.0, slices[1].Percent, 1e-9)
}

func TestComposition_FairLaunch(t *testing.T) {
	slices := Composition(fairProject(), nil)
	require.Len(t, slices, 1)
	assert.InDelta(t, 100.0, slices[0].Percent, 1e-9)
	assert.InDelta(t, 19500000.0, slices[0].Tokens, 1e-6)
}

func TestComposition_AllZero(t *testing.T) {
	p := fairProject()
	p.Supply.CurrentSupply = models.Float(0)
	slices := Composition(p, nil)
	require.Len(t, slices, 1)
	assert.Equal(t, 0.0, slices[0].Percent)

	assert.Nil(t, Composition(&models.Project{}, nil))
}

func TestAllocationBreakdown(t *testing.T) {
	slices := AllocationBreakdown(preminedProject(), genesis25())
	require.Len(t, slices, 4)
	assert.Equal(t, "Available for Mining", slices[3].Label)
	assert.InDelta(t, 750000.0, slices[3].Tokens, 1e-6)

	diff, ok := AllocationSumDiscrepancy(genesis25())
	assert.True(t, ok)
	assert.InDelta(t, 0.0, diff, 1e-9)

	g := genesis25()
	g.AvailableForMiningGenesisPct = models.Float(70)
	diff, ok = AllocationSumDiscrepancy(g)
	assert.True(t, ok)
	assert.InDelta(t, -5.0, diff, 1e-9)

	_, ok = AllocationSumDiscrepancy(nil)
	assert.False(t, ok)
}

func TestFDMC(t *testing.T) {
	p := fairProject()
	assert.Nil(t, FDMC(p))

	p.MarketData = &models.MarketData{CurrentPriceUSD: models.Float(100000)}
	require.NotNil(t, FDMC(p))
	assert.Equal(t, 2.1e12, *FDMC(p))

	p.MarketData.FDMC = models.Float(5)
	assert.Equal(t, 5.0, *FDMC(p))
}

func TestCirculatingComposition(t *testing.T) {
	c := CirculatingComposition(fairProject(), nil)
	assert.Equal(t, 100.0, c.MinedPct)
	assert.Equal(t, 0.0, c.PreminePct)
	assert.Equal(t, SeverityNone, c.Severity)

	c = CirculatingComposition(preminedProject(), genesis25())
	assert.InDelta(t, 83.333, c.PreminePct, 1e-3)
	assert.InDelta(t, 16.667, c.MinedPct, 1e-3)
	assert.Equal(t, SeverityHigh, c.Severity)
	assert.False(t, c.IsEmission)

	p := preminedProject()
	p.Supply = nil
	c = CirculatingComposition(p, genesis25())
	assert.Equal(t, 25.0, c.PreminePct)
	assert.Equal(t, 75.0, c.MinedPct)
}

func TestBorderSeverity(t *testing.T) {
	assert.Equal(t, SeverityNone, BorderSeverity(0))
	assert.Equal(t, SeverityLow, BorderSeverity(9.9))
	assert.Equal(t, SeverityMedium, BorderSeverity(10))
	assert.Equal(t, SeverityHigh, BorderSeverity(25))
}
