// Package metrics derives tokenomics figures from project records. Every
// function is a pure mapping of its inputs; absent values come back as nil.
package metrics

import (
	"math"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

// Slice categories used for color mapping.
const (
	ClassMining    = "mining"
	ClassAvailable = "available"
)

const LabelMined = "Mined (Block Rewards)"

// Slice is one named part of a supply breakdown.
type Slice struct {
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Percent  float64 `json:"percent"`
	Tokens   float64 `json:"tokens"`
}

// HasAllocation reports whether either the project or its genesis record
// flags a premine or an emission allocation.
func HasAllocation(p *models.Project, g *models.GenesisAllocation) bool {
	if p != nil && p.HasPremine {
		return true
	}
	return g != nil && (g.HasPremine || g.HasEmissionAllocation)
}

// IsEmission reports whether the genesis record describes an emission
// allocation rather than an upfront premine.
func IsEmission(g *models.GenesisAllocation) bool {
	return g != nil && g.HasEmissionAllocation
}

// MaxSupply returns the max supply when present and positive.
func MaxSupply(p *models.Project) *float64 {
	if p == nil || p.Supply == nil || p.Supply.MaxSupply == nil || *p.Supply.MaxSupply <= 0 {
		return nil
	}
	return p.Supply.MaxSupply
}

// CurrentSupplyPct returns current supply as a percent of max supply.
func CurrentSupplyPct(p *models.Project) *float64 {
	maxSupply := MaxSupply(p)
	if maxSupply == nil || p.Supply.CurrentSupply == nil {
		return nil
	}
	return models.Float(*p.Supply.CurrentSupply / *maxSupply * 100)
}

// MinedPct returns the percent of max supply produced by block rewards. With
// an allocation and a genesis record the allocation percent is subtracted,
// floored at 0.
func MinedPct(p *models.Project, g *models.GenesisAllocation) *float64 {
	current := CurrentSupplyPct(p)
	if current == nil {
		return nil
	}
	if !HasAllocation(p, g) || g == nil {
		return current
	}
	return models.Float(math.Max(0, *current-models.Value(g.TotalGenesisAllocationPct)))
}

// Composition breaks the current supply into mined tokens and, for projects
// with an allocation, one slice per non-empty tier. Percents are
// renormalized to sum to 100; token counts use max-supply units.
func Composition(p *models.Project, g *models.GenesisAllocation) []Slice {
	current := CurrentSupplyPct(p)
	if current == nil {
		return nil
	}
	maxSupply := *MaxSupply(p)

	var slices []Slice
	if !HasAllocation(p, g) || g == nil {
		slices = []Slice{{
			Label:    LabelMined,
			Category: ClassMining,
			Percent:  *current,
			Tokens:   *current / 100 * maxSupply,
		}}
	} else {
		mined := *MinedPct(p, g)
		slices = append(slices, Slice{
			Label:    LabelMined,
			Category: ClassMining,
			Percent:  mined,
			Tokens:   mined / 100 * maxSupply,
		})
		for _, id := range models.TrackedTiers {
			pct := g.TierPct(id)
			if pct <= 0 {
				continue
			}
			slices = append(slices, Slice{
				Label:    id.Label(),
				Category: id.Class(),
				Percent:  pct,
				Tokens:   pct / 100 * maxSupply,
			})
		}
	}

	return renormalize(slices)
}

func renormalize(slices []Slice) []Slice {
	var total float64
	for _, s := range slices {
		total += s.Percent
	}
	if total <= 0 {
		return slices
	}
	for i := range slices {
		slices[i].Percent = slices[i].Percent / total * 100
	}
	return slices
}

// AllocationBreakdown lists the genesis tiers and the share left for mining,
// in percent of max supply. Token counts are nil-safe: without a max supply
// they are 0.
func AllocationBreakdown(p *models.Project, g *models.GenesisAllocation) []Slice {
	if g == nil || g.AllocationTiers == nil {
		return nil
	}
	maxSupply := models.Value(MaxSupply(p))

	var slices []Slice
	for _, id := range models.TrackedTiers {
		pct := g.TierPct(id)
		if pct <= 0 {
			continue
		}
		slices = append(slices, Slice{
			Label:    id.Label(),
			Category: id.Class(),
			Percent:  pct,
			Tokens:   pct / 100 * maxSupply,
		})
	}
	if g.AvailableForMiningGenesisPct != nil {
		pct := *g.AvailableForMiningGenesisPct
		slices = append(slices, Slice{
			Label:    "Available for Mining",
			Category: ClassAvailable,
			Percent:  pct,
			Tokens:   pct / 100 * maxSupply,
		})
	}
	return slices
}

// AllocationSumDiscrepancy returns how far tier percents plus the mining
// percent are from 100. ok is false when the record has no tiers.
func AllocationSumDiscrepancy(g *models.GenesisAllocation) (diff float64, ok bool) {
	if g == nil || len(g.AllocationTiers) == 0 {
		return 0, false
	}
	sum := models.Value(g.AvailableForMiningGenesisPct)
	for _, id := range models.TrackedTiers {
		sum += g.TierPct(id)
	}
	return sum - 100, true
}

// FDMC returns the fully diluted market cap from market data, falling back to
// max supply times current price.
func FDMC(p *models.Project) *float64 {
	if p == nil || p.MarketData == nil {
		return nil
	}
	if p.MarketData.FDMC != nil {
		return p.MarketData.FDMC
	}
	maxSupply := MaxSupply(p)
	if maxSupply == nil || p.MarketData.CurrentPriceUSD == nil {
		return nil
	}
	return models.Float(*maxSupply * *p.MarketData.CurrentPriceUSD)
}
