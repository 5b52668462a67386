package metrics

import (
	"github.com/cannonQ/pow-tracker-site/internal/models"
)

// Concentration summarizes who holds the genesis allocation.
type Concentration struct {
	ProfitSeekingPct    float64 `json:"profit_seeking_pct"`
	EntityControlledPct float64 `json:"entity_controlled_pct"`
	CommunityPct        float64 `json:"community_pct"`
	LiquidityPct        float64 `json:"liquidity_pct"`
	// InsiderPct is tier 1 plus tier 2, in percent of max supply.
	InsiderPct float64 `json:"insider_pct"`
	// InsiderShareOfCurrent is insider tokens over current supply.
	InsiderShareOfCurrent *float64 `json:"insider_share_of_current"`
	AvailableForMiningPct *float64 `json:"available_for_mining_pct"`
	KnownInvestors        int      `json:"known_investors"`
	UndisclosedInvestors  int      `json:"undisclosed_investors"`
	TotalRaisedUSD        float64  `json:"total_raised_usd"`
}

// AllocationConcentration returns nil without a genesis record.
func AllocationConcentration(p *models.Project, g *models.GenesisAllocation) *Concentration {
	if g == nil {
		return nil
	}
	c := &Concentration{
		ProfitSeekingPct:      g.TierPct(models.Tier1ProfitSeeking),
		EntityControlledPct:   g.TierPct(models.Tier2EntityControlled),
		CommunityPct:          g.TierPct(models.Tier3Community),
		LiquidityPct:          g.TierPct(models.Tier4Liquidity),
		AvailableForMiningPct: g.AvailableForMiningGenesisPct,
	}
	c.InsiderPct = c.ProfitSeekingPct + c.EntityControlledPct

	if maxSupply := MaxSupply(p); maxSupply != nil && p.Supply.CurrentSupply != nil && *p.Supply.CurrentSupply > 0 {
		insiderTokens := c.InsiderPct / 100 * *maxSupply
		c.InsiderShareOfCurrent = models.Float(insiderTokens / *p.Supply.CurrentSupply * 100)
	}

	for _, id := range models.TrackedTiers {
		tier := g.AllocationTiers[id]
		if tier == nil {
			continue
		}
		for _, b := range tier.Buckets {
			if b.Investors == nil {
				continue
			}
			c.KnownInvestors += len(b.Investors.Known)
			c.UndisclosedInvestors += b.Investors.UnknownCount
			c.TotalRaisedUSD += models.Value(b.Investors.TotalRaisedUSD)
		}
	}
	return c
}

// BucketROI is the return profile of one allocation bucket at the current
// market price.
type BucketROI struct {
	Tier            models.TierID `json:"tier"`
	Name            string        `json:"name"`
	Pct             *float64      `json:"pct"`
	Tokens          *float64      `json:"tokens"`
	CostPerTokenUSD *float64      `json:"cost_per_token_usd"`
	CostBasisUSD    *float64      `json:"cost_basis_usd"`
	CurrentValueUSD *float64      `json:"current_value_usd"`
	Multiple        *float64      `json:"multiple"`
	VestingMonths   *float64      `json:"vesting_months"`
	CliffMonths     *float64      `json:"cliff_months"`
	TGEUnlockPct    *float64      `json:"tge_unlock_pct"`
	KnownInvestors  []string      `json:"known_investors,omitempty"`
	UnknownCount    int           `json:"unknown_count"`
}

// InvestorROI lists every allocation bucket in tier order with its cost
// basis, current value and price multiple where the inputs allow.
func InvestorROI(p *models.Project, g *models.GenesisAllocation) []BucketROI {
	if g == nil {
		return nil
	}
	var price *float64
	if p != nil && p.MarketData != nil && positive(p.MarketData.CurrentPriceUSD) {
		price = p.MarketData.CurrentPriceUSD
	}
	maxSupply := MaxSupply(p)

	var out []BucketROI
	for _, id := range models.TrackedTiers {
		tier := g.AllocationTiers[id]
		if tier == nil {
			continue
		}
		for _, b := range tier.Buckets {
			roi := BucketROI{
				Tier:            id,
				Name:            b.Name,
				Pct:             b.Pct,
				Tokens:          b.AbsoluteTokens,
				CostPerTokenUSD: b.CostPerTokenUSD,
				VestingMonths:   b.VestingMonths,
				CliffMonths:     b.CliffMonths,
				TGEUnlockPct:    b.TGEUnlockPct,
			}
			if roi.Tokens == nil && b.Pct != nil && maxSupply != nil {
				roi.Tokens = models.Float(*b.Pct / 100 * *maxSupply)
			}
			if b.Investors != nil {
				for _, inv := range b.Investors.Known {
					roi.KnownInvestors = append(roi.KnownInvestors, inv.Name)
				}
				roi.UnknownCount = b.Investors.UnknownCount
			}
			if roi.Tokens != nil && b.CostPerTokenUSD != nil {
				roi.CostBasisUSD = models.Float(*roi.Tokens * *b.CostPerTokenUSD)
			}
			if price != nil {
				if roi.Tokens != nil {
					roi.CurrentValueUSD = models.Float(*roi.Tokens * *price)
				}
				if positive(b.CostPerTokenUSD) {
					roi.Multiple = models.Float(*price / *b.CostPerTokenUSD)
				}
			}
			out = append(out, roi)
		}
	}
	return out
}
