package models

// TierID identifies a genesis allocation tier.
type TierID string

const (
	Tier1ProfitSeeking    TierID = "tier_1_profit_seeking"
	Tier2EntityControlled TierID = "tier_2_entity_controlled"
	Tier3Community        TierID = "tier_3_community"
	Tier4Liquidity        TierID = "tier_4_liquidity"
)

// TrackedTiers lists the tiers in display order.
var TrackedTiers = []TierID{
	Tier1ProfitSeeking,
	Tier2EntityControlled,
	Tier3Community,
	Tier4Liquidity,
}

var tierLabels = map[TierID]string{
	Tier1ProfitSeeking:    "Tier 1: Profit-Seeking",
	Tier2EntityControlled: "Tier 2: Entity Controlled",
	Tier3Community:        "Tier 3: Community",
	Tier4Liquidity:        "Tier 4: Liquidity",
}

var tierClasses = map[TierID]string{
	Tier1ProfitSeeking:    "tier-1",
	Tier2EntityControlled: "tier-2",
	Tier3Community:        "tier-3",
	Tier4Liquidity:        "tier-4",
}

// Label returns the display label of the tier.
func (t TierID) Label() string {
	if l, ok := tierLabels[t]; ok {
		return l
	}
	return string(t)
}

// Class returns the color-mapping tag of the tier.
func (t TierID) Class() string {
	if c, ok := tierClasses[t]; ok {
		return c
	}
	return "tier-other"
}

// GenesisAllocation is the genesis record of a project with a premine or an
// emission allocation.
type GenesisAllocation struct {
	Project                      string                  `json:"project,omitempty"`
	GenesisDate                  Date                    `json:"genesis_date"`
	HasPremine                   bool                    `json:"has_premine"`
	HasEmissionAllocation        bool                    `json:"has_emission_allocation"`
	TotalGenesisAllocationPct    *float64                `json:"total_genesis_allocation_pct,omitempty"`
	AllocationTiers              map[TierID]*Tier        `json:"allocation_tiers,omitempty"`
	AvailableForMiningGenesisPct *float64                `json:"available_for_mining_genesis_pct,omitempty"`
	MinerParityAnalysis          *MinerParityAnalysis    `json:"miner_parity_analysis,omitempty"`
	VestingWaterfall             []WaterfallEvent        `json:"vesting_waterfall,omitempty"`
	RedFlags                     []string                `json:"red_flags,omitempty"`
	TransparencyNotes            []string                `json:"transparency_notes,omitempty"`
	SuspectedInsiderMining       *SuspectedInsiderMining `json:"suspected_insider_mining,omitempty"`
}

// TierPct returns the tier's total percent of max supply, 0 when absent.
func (g *GenesisAllocation) TierPct(id TierID) float64 {
	if g == nil || g.AllocationTiers == nil {
		return 0
	}
	t, ok := g.AllocationTiers[id]
	if !ok || t == nil {
		return 0
	}
	return Value(t.TotalPct)
}

// Tier 分配层级
type Tier struct {
	TotalPct *float64           `json:"total_pct,omitempty"`
	Buckets  []AllocationBucket `json:"buckets,omitempty"`
}

// AllocationBucket is one allocation line item within a tier.
type AllocationBucket struct {
	Name            string     `json:"name"`
	Pct             *float64   `json:"pct,omitempty"`
	AbsoluteTokens  *float64   `json:"absolute_tokens,omitempty"`
	CostPerTokenUSD *float64   `json:"cost_per_token_usd,omitempty"`
	VestingMonths   *float64   `json:"vesting_months,omitempty"`
	CliffMonths     *float64   `json:"cliff_months,omitempty"`
	TGEUnlockPct    *float64   `json:"tge_unlock_pct,omitempty"`
	Investors       *Investors `json:"investors,omitempty"`
}

type Investors struct {
	Known          []Investor `json:"known,omitempty"`
	UnknownCount   int        `json:"unknown_count"`
	TotalRaisedUSD *float64   `json:"total_raised_usd,omitempty"`
}

type Investor struct {
	Name string `json:"name"`
}

// MinerParityAnalysis carries the curated parity figures of a genesis record.
type MinerParityAnalysis struct {
	GenesisAllocationTotal *float64      `json:"genesis_allocation_total,omitempty"`
	CumulativeMinedToDate  *float64      `json:"cumulative_mined_to_date,omitempty"`
	PctTowardParity        *float64      `json:"pct_toward_parity,omitempty"`
	DailyEmissionCurrent   *float64      `json:"daily_emission_current,omitempty"`
	ParityTimeline         []ParityEvent `json:"parity_timeline,omitempty"`
}

type ParityEvent struct {
	Event string `json:"event"`
	Date  Date   `json:"date"`
}

// WaterfallEvent is one line of the curated vesting waterfall.
type WaterfallEvent struct {
	Month        int     `json:"month"`
	PctOfPremine float64 `json:"pct_of_premine"`
	Source       string  `json:"source"`
}

type SuspectedInsiderMining struct {
	Suspected    bool     `json:"suspected"`
	EstimatedPct *float64 `json:"estimated_pct,omitempty"`
	Evidence     []string `json:"evidence,omitempty"`
}
