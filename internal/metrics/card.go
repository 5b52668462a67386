package metrics

import (
	"math"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CardComposition is the allocation vs mined split of circulating supply
// shown on a project card.
type CardComposition struct {
	AllocationPctTotal float64  `json:"allocation_pct_total"`
	PreminePct         float64  `json:"premine_pct"`
	MinedPct           float64  `json:"mined_pct"`
	IsEmission         bool     `json:"is_emission"`
	Severity           Severity `json:"severity"`
}

// CirculatingComposition splits circulating supply into the allocated and the
// mined share. Without supply figures it falls back to max-supply percents.
func CirculatingComposition(p *models.Project, g *models.GenesisAllocation) CardComposition {
	c := CardComposition{MinedPct: 100, IsEmission: IsEmission(g)}
	if HasAllocation(p, g) && g != nil {
		c.AllocationPctTotal = models.Value(g.TotalGenesisAllocationPct)
	}
	c.Severity = BorderSeverity(c.AllocationPctTotal)
	if c.AllocationPctTotal <= 0 {
		return c
	}

	current := CurrentSupplyPct(p)
	if current == nil || *current <= 0 {
		c.PreminePct = math.Min(100, c.AllocationPctTotal)
		c.MinedPct = 100 - c.PreminePct
		return c
	}
	c.PreminePct = math.Min(c.AllocationPctTotal, *current) / *current * 100
	c.MinedPct = 100 - c.PreminePct
	return c
}

// BorderSeverity grades an allocation percent for card styling.
func BorderSeverity(allocationPct float64) Severity {
	switch {
	case allocationPct <= 0:
		return SeverityNone
	case allocationPct < 10:
		return SeverityLow
	case allocationPct < 25:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}
