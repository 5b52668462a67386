package models

import "time"

// LaunchType 发行方式
type LaunchType string

const (
	LaunchFair              LaunchType = "fair"
	LaunchFairWithSuspicion LaunchType = "fair_with_suspicion"
	LaunchPremined          LaunchType = "premined"
	LaunchOther             LaunchType = "other"
)

// Project is the canonical record of one proof-of-work token project.
type Project struct {
	Project     string      `json:"project"`
	Ticker      string      `json:"ticker"`
	Consensus   string      `json:"consensus,omitempty"`
	Algorithm   string      `json:"algorithm,omitempty"`
	LaunchDate  Date        `json:"launch_date"`
	LastUpdated Date        `json:"last_updated"`
	LaunchType  LaunchType  `json:"launch_type"`
	HasPremine  bool        `json:"has_premine"` // 旧字段，可能与 genesis 记录不一致
	Supply      *Supply     `json:"supply,omitempty"`
	Emission    *Emission   `json:"emission,omitempty"`
	Mining      *Mining     `json:"mining,omitempty"`
	MarketData  *MarketData `json:"market_data,omitempty"`
	Notes       []string    `json:"notes,omitempty"`
	DataSources *Sources    `json:"data_sources,omitempty"`
}

// Supply 供应量
type Supply struct {
	MaxSupply         *float64 `json:"max_supply,omitempty"`
	CurrentSupply     *float64 `json:"current_supply,omitempty"`
	EmissionRemaining *float64 `json:"emission_remaining,omitempty"`
	PctMined          *float64 `json:"pct_mined,omitempty"`
}

// Emission 排放参数
type Emission struct {
	CurrentBlockReward *float64       `json:"current_block_reward,omitempty"`
	BlockTimeSeconds   *float64       `json:"block_time_seconds,omitempty"`
	DailyEmission      *float64       `json:"daily_emission,omitempty"`
	AnnualInflationPct *float64       `json:"annual_inflation_pct,omitempty"`
	HalvingSchedule    []HalvingEvent `json:"halving_schedule,omitempty"`
}

// HalvingEvent is either a structural halving (height and both rewards
// present) or a narrative milestone.
type HalvingEvent struct {
	Height       *int64   `json:"height,omitempty"`
	RewardBefore *float64 `json:"reward_before,omitempty"`
	RewardAfter  *float64 `json:"reward_after,omitempty"`
	Date         Date     `json:"date"`
	Event        string   `json:"event,omitempty"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// IsHalving reports whether the event carries the full structural shape.
func (e HalvingEvent) IsHalving() bool {
	return e.Height != nil && e.RewardBefore != nil && e.RewardAfter != nil
}

// Mining holds the pass-through mining section. Only the fields read by the
// dashboard are typed.
type Mining struct {
	CurrentHashrateEH *float64          `json:"current_hashrate_eh,omitempty"`
	CurrentHashratePH *float64          `json:"current_hashrate_ph,omitempty"`
	CurrentHashrateTH *float64          `json:"current_hashrate_th,omitempty"`
	Decentralization  *Decentralization `json:"decentralization,omitempty"`
}

type Decentralization struct {
	LargestPool *Pool    `json:"largest_pool,omitempty"`
	Top3PoolPct *float64 `json:"top_3_pools_pct,omitempty"`
	Nakamoto    *float64 `json:"nakamoto_coefficient,omitempty"`
}

type Pool struct {
	Name string   `json:"name"`
	Pct  *float64 `json:"pct,omitempty"`
}

// MarketData 市场数据
type MarketData struct {
	CurrentPriceUSD *float64 `json:"current_price_usd,omitempty"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	FDMC            *float64 `json:"fdmc,omitempty"`
	Volume24h       *float64 `json:"volume_24h,omitempty"`
}

// Sources 数据来源
type Sources struct {
	OfficialDocs  []string `json:"official_docs,omitempty"`
	BlockExplorer []string `json:"block_explorer,omitempty"`
	MarketData    []string `json:"market_data,omitempty"`
	MiningData    []string `json:"mining_data,omitempty"`
}

// Record bundles one project with its optional genesis and vesting records,
// keyed by the file name it was loaded from.
type Record struct {
	Name    string             `json:"name"`
	Project *Project           `json:"data"`
	Genesis *GenesisAllocation `json:"genesis,omitempty"`
	Vesting *VestingSchedule   `json:"vesting,omitempty"`
}

// MetricsSnapshot is one persisted row of computed metrics for a project.
type MetricsSnapshot struct {
	Name               string    `json:"name"`
	Ticker             string    `json:"ticker"`
	Category           string    `json:"category"`
	PreminePct         float64   `json:"premine_pct"`
	CurrentSupplyPct   *float64  `json:"current_supply_pct"`
	MinedPct           *float64  `json:"mined_pct"`
	FDMC               *float64  `json:"fdmc"`
	ParityAchieved     bool      `json:"parity_achieved"`
	VestingProgressPct *float64  `json:"vesting_progress_pct"`
	Timestamp          time.Time `json:"timestamp"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, returning 0 for nil.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
