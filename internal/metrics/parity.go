package metrics

import (
	"math"
	"strings"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

type ParityState string

const (
	ParityAchieved      ParityState = "achieved"
	ParityPending       ParityState = "pending"
	ParityIndeterminate ParityState = "indeterminate"
)

// maxParityDays caps DaysRemaining when the daily emission is tiny compared
// to the allocation.
const maxParityDays = math.MaxInt32

// ParityStatus narrates when block rewards catch up with the genesis
// allocation.
//
// The estimate assumes the current daily emission has been constant since
// launch; halvings between launch and now are not integrated.
type ParityStatus struct {
	State           ParityState `json:"state"`
	AllocatedTokens *float64    `json:"allocated_tokens"`
	MinedToDate     *float64    `json:"mined_to_date"`
	DaysRemaining   *int        `json:"days_remaining"`
	YearsRemaining  *float64    `json:"years_remaining"`
}

// Parity computes the miner-parity status at now. Missing daily emission, max
// supply, launch date or allocation percent, or a non-positive daily
// emission, yield ParityIndeterminate.
func Parity(p *models.Project, g *models.GenesisAllocation, now time.Time) ParityStatus {
	status := ParityStatus{State: ParityIndeterminate}
	if p == nil || g == nil || g.TotalGenesisAllocationPct == nil {
		return status
	}
	maxSupply := MaxSupply(p)
	if maxSupply == nil || p.Emission == nil || p.Emission.DailyEmission == nil || !p.LaunchDate.Valid() {
		return status
	}
	dailyEmission := *p.Emission.DailyEmission
	if dailyEmission <= 0 {
		return status
	}

	allocated := *g.TotalGenesisAllocationPct / 100 * *maxSupply
	mined := dailyEmission * float64(models.DaysSince(p.LaunchDate.Time, now))
	status.AllocatedTokens = models.Float(allocated)
	status.MinedToDate = models.Float(mined)

	if mined >= allocated {
		status.State = ParityAchieved
		return status
	}

	remaining := math.Ceil((allocated - mined) / dailyEmission)
	if math.IsNaN(remaining) {
		return ParityStatus{State: ParityIndeterminate}
	}
	// 极小的日产出会超出 int 范围，饱和处理
	days := maxParityDays
	if remaining < float64(maxParityDays) {
		days = int(remaining)
	}
	status.State = ParityPending
	status.DaysRemaining = &days
	status.YearsRemaining = models.Float(math.Round(float64(days)/365*10) / 10)
	return status
}

// DecentralizationPath is the curated progress of miners toward the genesis
// allocation, with computed fallbacks for missing figures.
type DecentralizationPath struct {
	GenesisAllocationTokens float64     `json:"genesis_allocation_tokens"`
	MinedToDate             float64     `json:"mined_to_date"`
	PctTowardParity         *float64    `json:"pct_toward_parity"`
	DailyEmission           *float64    `json:"daily_emission"`
	ParityDate              models.Date `json:"parity_date"`
}

// Decentralization returns nil unless the genesis record carries a miner
// parity analysis.
func Decentralization(p *models.Project, g *models.GenesisAllocation) *DecentralizationPath {
	if p == nil || g == nil || g.MinerParityAnalysis == nil {
		return nil
	}
	analysis := g.MinerParityAnalysis
	path := &DecentralizationPath{}

	switch {
	case positive(analysis.GenesisAllocationTotal):
		path.GenesisAllocationTokens = *analysis.GenesisAllocationTotal
	case MaxSupply(p) != nil:
		path.GenesisAllocationTokens = models.Value(g.TotalGenesisAllocationPct) / 100 * *MaxSupply(p)
	}

	switch {
	case positive(analysis.CumulativeMinedToDate):
		path.MinedToDate = *analysis.CumulativeMinedToDate
	case p.Supply != nil && p.Supply.CurrentSupply != nil:
		path.MinedToDate = math.Max(0, *p.Supply.CurrentSupply-path.GenesisAllocationTokens)
	}

	switch {
	case positive(analysis.PctTowardParity):
		path.PctTowardParity = analysis.PctTowardParity
	case path.GenesisAllocationTokens > 0:
		path.PctTowardParity = models.Float(path.MinedToDate / path.GenesisAllocationTokens * 100)
	}

	switch {
	case positive(analysis.DailyEmissionCurrent):
		path.DailyEmission = analysis.DailyEmissionCurrent
	case p.Emission != nil:
		path.DailyEmission = p.Emission.DailyEmission
	}

	for _, e := range analysis.ParityTimeline {
		if strings.Contains(strings.ToUpper(e.Event), "PARITY") {
			path.ParityDate = e.Date
			break
		}
	}
	return path
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
