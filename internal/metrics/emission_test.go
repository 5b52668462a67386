package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

func height(h int64) *int64 {
	return &h
}

func TestSplitHalvingSchedule(t *testing.T) {
	var schedule []models.HalvingEvent
	for i := 0; i < 7; i++ {
		schedule = append(schedule, models.HalvingEvent{
			Height:       height(int64(210000 * (i + 1))),
			RewardBefore: models.Float(50 / float64(int(1)<<i)),
			RewardAfter:  models.Float(25 / float64(int(1)<<i)),
			Date:         models.NewDate(now.AddDate(4*(i-4), 0, 0)),
		})
	}
	schedule = append(schedule,
		models.HalvingEvent{Event: "crescendo_upgrade", Date: models.ParseDate("2025-05-05")},
		models.HalvingEvent{Name: "tail emission", Description: "no date yet"},
		models.HalvingEvent{Height: height(1), RewardBefore: models.Float(10)},
	)

	split := SplitHalvingSchedule(&models.Project{Emission: &models.Emission{HalvingSchedule: schedule}}, now)

	require.Len(t, split.Halvings, MaxTimelineEvents)
	assert.Equal(t, int64(210000), *split.Halvings[0].Height)
	assert.Equal(t, StatusPast, split.Halvings[0].Status)
	assert.Equal(t, StatusUpcoming, split.Halvings[4].Status)
	assert.Equal(t, "Block 210000", split.Halvings[0].Title)

	require.Len(t, split.Milestones, 3)
	assert.Equal(t, "Crescendo Upgrade", split.Milestones[0].Title)
	assert.Equal(t, StatusPast, split.Milestones[0].Status)
	assert.Equal(t, "Tail Emission", split.Milestones[1].Title)
	assert.Equal(t, StatusUndated, split.Milestones[1].Status)
	assert.Equal(t, "Milestone", split.Milestones[2].Title)
}

func TestSplitHalvingSchedule_Empty(t *testing.T) {
	split := SplitHalvingSchedule(&models.Project{}, now)
	assert.Empty(t, split.Halvings)
	assert.Empty(t, split.Milestones)
}

func TestVestingWaterfall(t *testing.T) {
	g := &models.GenesisAllocation{
		GenesisDate: models.ParseDate("2025-01-31"),
		VestingWaterfall: []models.WaterfallEvent{
			{Month: 0, PctOfPremine: 10, Source: "TGE"},
			{Month: 12, PctOfPremine: 30, Source: "cliff"},
		},
	}
	entries := VestingWaterfall(g, now)
	require.Len(t, entries, 2)
	assert.Equal(t, StatusPast, entries[0].Status)
	assert.Equal(t, StatusUpcoming, entries[1].Status)
	assert.Equal(t, 2026, entries[1].Date.Year())

	g.GenesisDate = models.Date{}
	entries = VestingWaterfall(g, now)
	assert.Equal(t, StatusUndated, entries[0].Status)
}

func TestParity_Pending(t *testing.T) {
	status := Parity(preminedProject(), genesis25(), now)

	assert.Equal(t, ParityPending, status.State)
	assert.Equal(t, 250000.0, *status.AllocatedTokens)
	assert.Equal(t, 100000.0, *status.MinedToDate)
	require.NotNil(t, status.DaysRemaining)
	assert.Equal(t, 150, *status.DaysRemaining)
	assert.Equal(t, 0.4, *status.YearsRemaining)
}

func TestParity_Achieved(t *testing.T) {
	p := preminedProject()
	p.LaunchDate = models.NewDate(now.AddDate(0, 0, -250))
	status := Parity(p, genesis25(), now)
	assert.Equal(t, ParityAchieved, status.State)
	assert.Nil(t, status.DaysRemaining)
}

func TestParity_TinyEmissionSaturates(t *testing.T) {
	p := preminedProject()
	p.Supply.MaxSupply = models.Float(1e12)
	p.Emission.DailyEmission = models.Float(1e-9)
	p.LaunchDate = models.NewDate(now.AddDate(0, 0, -10))
	g := genesis25()
	g.TotalGenesisAllocationPct = models.Float(50)

	status := Parity(p, g, now)
	assert.Equal(t, ParityPending, status.State)
	require.NotNil(t, status.DaysRemaining)
	assert.Equal(t, maxParityDays, *status.DaysRemaining)
	require.NotNil(t, status.YearsRemaining)
	assert.Greater(t, *status.YearsRemaining, 5e6)
}

func TestParity_Indeterminate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.Project, g *models.GenesisAllocation)
	}{
		{"zero daily emission", func(p *models.Project, g *models.GenesisAllocation) { p.Emission.DailyEmission = models.Float(0) }},
		{"missing emission", func(p *models.Project, g *models.GenesisAllocation) { p.Emission = nil }},
		{"missing max supply", func(p *models.Project, g *models.GenesisAllocation) { p.Supply.MaxSupply = nil }},
		{"missing launch date", func(p *models.Project, g *models.GenesisAllocation) { p.LaunchDate = models.Date{} }},
		{"missing allocation pct", func(p *models.Project, g *models.GenesisAllocation) { g.TotalGenesisAllocationPct = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, g := preminedProject(), genesis25()
			tt.mutate(p, g)
			status := Parity(p, g, now)
			assert.Equal(t, ParityIndeterminate, status.State)
			assert.Nil(t, status.YearsRemaining)
		})
	}
	assert.Equal(t, ParityIndeterminate, Parity(preminedProject(), nil, now).State)
}

func TestDecentralization(t *testing.T) {
	p := preminedProject()
	g := genesis25()
	assert.Nil(t, Decentralization(p, g))

	g.MinerParityAnalysis = &models.MinerParityAnalysis{
		ParityTimeline: []models.ParityEvent{
			{Event: "halving", Date: models.ParseDate("2026-01-01")},
			{Event: "MINER PARITY", Date: models.ParseDate("2027-03-01")},
		},
	}
	path := Decentralization(p, g)
	require.NotNil(t, path)
	assert.Equal(t, 250000.0, path.GenesisAllocationTokens)
	assert.Equal(t, 50000.0, path.MinedToDate)
	assert.InDelta(t, 20.0, *path.PctTowardParity, 1e-9)
	assert.Equal(t, 1000.0, *path.DailyEmission)
	assert.Equal(t, 2027, path.ParityDate.Year())

	g.MinerParityAnalysis.CumulativeMinedToDate = models.Float(125000)
	g.MinerParityAnalysis.DailyEmissionCurrent = models.Float(900)
	path = Decentralization(p, g)
	assert.InDelta(t, 50.0, *path.PctTowardParity, 1e-9)
	assert.Equal(t, 900.0, *path.DailyEmission)
}
